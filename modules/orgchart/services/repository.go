package services

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned by repositories when a row does not exist.
var ErrRecordNotFound = errors.New("record not found")

type DivisionFilter struct {
	OrganizationID *int64
	ParentID       *int64
}

type SectionFilter struct {
	DivisionID *int64
}

type PositionFilter struct {
	DivisionID *int64
	SectionID  *int64
}

type StaffFilter struct {
	OrganizationID *int64
}

type FunctionFilter struct {
	SectionID *int64
}

type StaffPositionFilter struct {
	StaffID    *int64
	PositionID *int64
}

type AssignmentFilter struct {
	PositionID *int64
	FunctionID *int64
}

type RelationFilter struct {
	// PositionID matches either endpoint.
	PositionID *int64
	SourceID   *int64
	TargetID   *int64
}

// Repository is the entity store. Every call runs inside the transaction carried
// by ctx when there is one.
type Repository interface {
	ListOrganizations(ctx context.Context) ([]Organization, error)
	GetOrganization(ctx context.Context, id int64) (Organization, error)
	OrganizationCodeExists(ctx context.Context, code string, excludeID int64) (bool, error)
	InsertOrganization(ctx context.Context, org *Organization) error
	UpdateOrganization(ctx context.Context, org *Organization) error
	DeleteOrganization(ctx context.Context, id int64) error

	ListDivisions(ctx context.Context, filter DivisionFilter) ([]Division, error)
	GetDivision(ctx context.Context, id int64) (Division, error)
	DivisionCodeExists(ctx context.Context, organizationID int64, code string, excludeID int64) (bool, error)
	InsertDivision(ctx context.Context, div *Division) error
	UpdateDivision(ctx context.Context, div *Division) error
	DeleteDivision(ctx context.Context, id int64) error

	ListSections(ctx context.Context, filter SectionFilter) ([]Section, error)
	GetSection(ctx context.Context, id int64) (Section, error)
	SectionCodeExists(ctx context.Context, divisionID int64, code string, excludeID int64) (bool, error)
	InsertSection(ctx context.Context, sec *Section) error
	UpdateSection(ctx context.Context, sec *Section) error
	DeleteSection(ctx context.Context, id int64) error

	ListPositions(ctx context.Context, filter PositionFilter) ([]Position, error)
	GetPosition(ctx context.Context, id int64) (Position, error)
	// PositionCodeExists checks uniqueness within a division; a nil division is its own scope.
	PositionCodeExists(ctx context.Context, divisionID *int64, code string, excludeID int64) (bool, error)
	InsertPosition(ctx context.Context, pos *Position) error
	UpdatePosition(ctx context.Context, pos *Position) error
	DeletePosition(ctx context.Context, id int64) error

	ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error)
	GetStaff(ctx context.Context, id int64) (Staff, error)
	InsertStaff(ctx context.Context, staff *Staff) error
	UpdateStaff(ctx context.Context, staff *Staff) error
	DeleteStaff(ctx context.Context, id int64) error

	ListFunctions(ctx context.Context, filter FunctionFilter) ([]Function, error)
	GetFunction(ctx context.Context, id int64) (Function, error)
	FunctionCodeExists(ctx context.Context, code string, excludeID int64) (bool, error)
	InsertFunction(ctx context.Context, fn *Function) error
	UpdateFunction(ctx context.Context, fn *Function) error
	DeleteFunction(ctx context.Context, id int64) error

	ListStaffAssignments(ctx context.Context, filter StaffPositionFilter) ([]StaffAssignment, error)
	GetStaffPosition(ctx context.Context, id int64) (StaffPosition, error)
	StaffPositionExists(ctx context.Context, staffID, positionID, excludeID int64) (bool, error)
	InsertStaffPosition(ctx context.Context, sp *StaffPosition) error
	UpdateStaffPosition(ctx context.Context, sp *StaffPosition) error
	DeleteStaffPosition(ctx context.Context, id int64) error
	DeleteStaffPositionsByPosition(ctx context.Context, positionID int64) (int64, error)

	ListAssignedFunctions(ctx context.Context, filter AssignmentFilter) ([]AssignedFunction, error)
	GetFunctionalAssignment(ctx context.Context, id int64) (FunctionalAssignment, error)
	FunctionalAssignmentExists(ctx context.Context, positionID, functionID, excludeID int64) (bool, error)
	InsertFunctionalAssignment(ctx context.Context, fa *FunctionalAssignment) error
	UpdateFunctionalAssignment(ctx context.Context, fa *FunctionalAssignment) error
	DeleteFunctionalAssignment(ctx context.Context, id int64) error
	DeleteFunctionalAssignmentsByPosition(ctx context.Context, positionID int64) (int64, error)

	ListRelationEdges(ctx context.Context, filter RelationFilter) ([]RelationEdge, error)
	GetFunctionalRelation(ctx context.Context, id int64) (FunctionalRelation, error)
	InsertFunctionalRelation(ctx context.Context, fr *FunctionalRelation) error
	UpdateFunctionalRelation(ctx context.Context, fr *FunctionalRelation) error
	DeleteFunctionalRelation(ctx context.Context, id int64) error
	DeleteFunctionalRelationsByPosition(ctx context.Context, positionID int64) (int64, error)

	// ListFunctionsByDivisions joins Position -> FunctionalAssignment -> Function for
	// positions whose division_id is in divisionIDs.
	ListFunctionsByDivisions(ctx context.Context, divisionIDs []int64) ([]DivisionFunction, error)

	// LockRow takes a row lock held until the surrounding transaction ends.
	LockRow(ctx context.Context, kind EntityKind, id int64) error
	// LockHierarchy serializes parent-link changes of kind within scopeID until the
	// surrounding transaction ends.
	LockHierarchy(ctx context.Context, kind EntityKind, scopeID int64) error
}

// Transactor runs fn in a single store transaction, committing when fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(txCtx context.Context) error) error
	// InReadTx runs fn in a read-only transaction where every read sees one snapshot.
	InReadTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

func inTx[T any](ctx context.Context, tx Transactor, fn func(txCtx context.Context) (T, error)) (T, error) {
	var out T
	err := tx.InTx(ctx, func(txCtx context.Context) error {
		v, err := fn(txCtx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func readTx[T any](ctx context.Context, tx Transactor, fn func(txCtx context.Context) (T, error)) (T, error) {
	var out T
	err := tx.InReadTx(ctx, func(txCtx context.Context) error {
		v, err := fn(txCtx)
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
