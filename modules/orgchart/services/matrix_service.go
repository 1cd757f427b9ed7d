package services

import (
	"context"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/hierarchy"
)

const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// PositionRelation is a relation seen from one of its endpoints.
type PositionRelation struct {
	RelationEdge
	Direction       string `json:"direction"`
	CounterpartID   int64  `json:"counterpart_id"`
	CounterpartName string `json:"counterpart_name"`
}

// MatrixService answers lookups over the functional matrix. It does not follow the
// structural hierarchy except for FunctionsUnderDivision.
type MatrixService struct {
	repo Repository
	tx   Transactor
}

func NewMatrixService(repo Repository, tx Transactor) *MatrixService {
	return &MatrixService{repo: repo, tx: tx}
}

func (s *MatrixService) fail(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	mapped := mapStoreError(err)
	maybeLogRejected(ctx, op, mapped)
	return mapped
}

func (s *MatrixService) FunctionsForPosition(ctx context.Context, positionID int64) ([]AssignedFunction, error) {
	out, err := readTx(ctx, s.tx, func(txCtx context.Context) ([]AssignedFunction, error) {
		if _, err := s.repo.GetPosition(txCtx, positionID); err != nil {
			return nil, notFoundAs(err, KindPosition, positionID)
		}
		return s.repo.ListAssignedFunctions(txCtx, AssignmentFilter{PositionID: &positionID})
	})
	return out, s.fail(ctx, "matrix.functions_for_position", err)
}

func (s *MatrixService) RelationsForPosition(ctx context.Context, positionID int64) ([]PositionRelation, error) {
	out, err := readTx(ctx, s.tx, func(txCtx context.Context) ([]PositionRelation, error) {
		if _, err := s.repo.GetPosition(txCtx, positionID); err != nil {
			return nil, notFoundAs(err, KindPosition, positionID)
		}
		edges, err := s.repo.ListRelationEdges(txCtx, RelationFilter{PositionID: &positionID})
		if err != nil {
			return nil, err
		}
		return orientRelations(positionID, edges), nil
	})
	return out, s.fail(ctx, "matrix.relations_for_position", err)
}

// orientRelations tags each edge relative to positionID. A self-loop is reported once, as outgoing.
func orientRelations(positionID int64, edges []RelationEdge) []PositionRelation {
	out := make([]PositionRelation, 0, len(edges))
	for _, e := range edges {
		rel := PositionRelation{RelationEdge: e}
		if e.SourceID == positionID {
			rel.Direction = DirectionOutgoing
			rel.CounterpartID = e.TargetID
			rel.CounterpartName = e.TargetName
		} else {
			rel.Direction = DirectionIncoming
			rel.CounterpartID = e.SourceID
			rel.CounterpartName = e.SourceName
		}
		out = append(out, rel)
	}
	return out
}

func (s *MatrixService) PositionsForFunction(ctx context.Context, functionID int64) ([]AssignedFunction, error) {
	out, err := readTx(ctx, s.tx, func(txCtx context.Context) ([]AssignedFunction, error) {
		if _, err := s.repo.GetFunction(txCtx, functionID); err != nil {
			return nil, notFoundAs(err, KindFunction, functionID)
		}
		return s.repo.ListAssignedFunctions(txCtx, AssignmentFilter{FunctionID: &functionID})
	})
	return out, s.fail(ctx, "matrix.positions_for_function", err)
}

// FunctionsUnderDivision lists functions held by positions placed in the division.
// With recursive set, every descendant division is included as well.
func (s *MatrixService) FunctionsUnderDivision(ctx context.Context, divisionID int64, recursive bool) ([]DivisionFunction, error) {
	out, err := readTx(ctx, s.tx, func(txCtx context.Context) ([]DivisionFunction, error) {
		div, err := s.repo.GetDivision(txCtx, divisionID)
		if err != nil {
			return nil, notFoundAs(err, KindDivision, divisionID)
		}
		ids := []int64{divisionID}
		if recursive {
			orgID := div.OrganizationID
			all, err := s.repo.ListDivisions(txCtx, DivisionFilter{OrganizationID: &orgID})
			if err != nil {
				return nil, err
			}
			ids = descendantDivisionIDs(all, divisionID)
		}
		return s.repo.ListFunctionsByDivisions(txCtx, ids)
	})
	return out, s.fail(ctx, "matrix.functions_under_division", err)
}

func descendantDivisionIDs(divisions []Division, rootID int64) []int64 {
	tree := hierarchy.Build(divisions, hierarchy.Options[Division, int64]{
		Key:    func(d Division) int64 { return d.ID },
		Parent: divisionParent,
		IsRoot: func(d Division) bool { return d.ID == rootID },
	})
	ids := make([]int64, 0, len(divisions))
	for _, d := range hierarchy.Flatten(tree) {
		ids = append(ids, d.ID)
	}
	return ids
}

func divisionParent(d Division) (int64, bool) {
	if d.ParentID == nil {
		return 0, false
	}
	return *d.ParentID, true
}
