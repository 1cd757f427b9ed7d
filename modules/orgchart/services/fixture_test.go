package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type backingStore interface {
	services.Repository
	services.Transactor
}

type harness struct {
	t          *testing.T
	ctx        context.Context
	store      backingStore
	structure  *services.StructureService
	matrix     *services.MatrixService
	projection *services.ProjectionService
	guard      *services.DeletionGuard
}

func newHarness(t *testing.T, opts ...func(*services.Options)) *harness {
	t.Helper()
	return newHarnessOn(t, memstore.New(), opts...)
}

func newHarnessOn(t *testing.T, store backingStore, opts ...func(*services.Options)) *harness {
	t.Helper()
	options := services.Options{Now: func() time.Time { return fixedNow }}
	for _, o := range opts {
		o(&options)
	}
	return &harness{
		t:          t,
		ctx:        context.Background(),
		store:      store,
		structure:  services.NewStructureService(store, store, options),
		matrix:     services.NewMatrixService(store, store),
		projection: services.NewProjectionService(store, store, nil, nil, options),
		guard:      services.NewDeletionGuard(store, store),
	}
}

func ptr[T any](v T) *T { return &v }

func (h *harness) org(name, code string, parent *int64) services.Organization {
	h.t.Helper()
	out, err := h.structure.CreateOrganization(h.ctx, services.Organization{Name: name, Code: code, ParentID: parent, IsActive: true})
	require.NoError(h.t, err)
	return out
}

func (h *harness) division(orgID int64, name, code string, parent *int64) services.Division {
	h.t.Helper()
	out, err := h.structure.CreateDivision(h.ctx, services.Division{
		Name: name, Code: code, OrganizationID: orgID, ParentID: parent, IsActive: true,
	})
	require.NoError(h.t, err)
	return out
}

func (h *harness) section(divisionID int64, name, code string) services.Section {
	h.t.Helper()
	out, err := h.structure.CreateSection(h.ctx, services.Section{Name: name, Code: code, DivisionID: divisionID, IsActive: true})
	require.NoError(h.t, err)
	return out
}

func (h *harness) position(name, code string, divisionID, sectionID *int64) services.Position {
	h.t.Helper()
	out, err := h.structure.CreatePosition(h.ctx, services.Position{
		Name: name, Code: code, DivisionID: divisionID, SectionID: sectionID, IsActive: true,
	})
	require.NoError(h.t, err)
	return out
}

func (h *harness) staff(first, last string) services.Staff {
	h.t.Helper()
	out, err := h.structure.CreateStaff(h.ctx, services.Staff{FirstName: first, LastName: last, IsActive: true})
	require.NoError(h.t, err)
	return out
}

func (h *harness) occupy(staffID, positionID int64) services.StaffPosition {
	h.t.Helper()
	out, err := h.structure.CreateStaffPosition(h.ctx, services.StaffPosition{StaffID: staffID, PositionID: positionID, IsPrimary: true})
	require.NoError(h.t, err)
	return out
}

func (h *harness) function(sectionID int64, name, code string) services.Function {
	h.t.Helper()
	out, err := h.structure.CreateFunction(h.ctx, services.Function{Name: name, Code: code, SectionID: sectionID, IsActive: true})
	require.NoError(h.t, err)
	return out
}

func (h *harness) assign(positionID, functionID int64) services.FunctionalAssignment {
	h.t.Helper()
	out, err := h.structure.CreateFunctionalAssignment(h.ctx, services.FunctionalAssignment{
		PositionID: positionID, FunctionID: functionID, Percentage: 100,
	})
	require.NoError(h.t, err)
	return out
}

func (h *harness) relate(sourceID, targetID int64) services.FunctionalRelation {
	h.t.Helper()
	out, err := h.structure.CreateFunctionalRelation(h.ctx, services.FunctionalRelation{SourceID: sourceID, TargetID: targetID, Weight: 1})
	require.NoError(h.t, err)
	return out
}

// recordingStore counts transaction modes and hierarchy locks, and can fail
// DeletePosition on demand.
type recordingStore struct {
	*memstore.Store
	writeTxs          int
	readTxs           int
	locks             []services.EntityKind
	deletePositionErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memstore.New()}
}

func (r *recordingStore) InTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	r.writeTxs++
	return r.Store.InTx(ctx, fn)
}

func (r *recordingStore) InReadTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	r.readTxs++
	return r.Store.InReadTx(ctx, fn)
}

func (r *recordingStore) LockHierarchy(ctx context.Context, kind services.EntityKind, scopeID int64) error {
	r.locks = append(r.locks, kind)
	return r.Store.LockHierarchy(ctx, kind, scopeID)
}

func (r *recordingStore) DeletePosition(ctx context.Context, id int64) error {
	if r.deletePositionErr != nil {
		return r.deletePositionErr
	}
	return r.Store.DeletePosition(ctx, id)
}

func requireKind(t *testing.T, err error, kind services.ErrorKind) *services.ServiceError {
	t.Helper()
	require.Error(t, err)
	var svcErr *services.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, kind, svcErr.Kind, svcErr.Message)
	return svcErr
}
