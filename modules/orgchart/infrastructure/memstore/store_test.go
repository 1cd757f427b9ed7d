package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

func TestStore_InTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	org := services.Organization{Name: "Acme", Code: "ACME", IsActive: true}
	require.NoError(t, store.InsertOrganization(ctx, &org))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(txCtx context.Context) error {
		div := services.Division{Name: "Dept", Code: "D", OrganizationID: org.ID}
		require.NoError(t, store.InsertDivision(txCtx, &div))
		require.NoError(t, store.DeleteOrganization(txCtx, org.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	divs, err := store.ListDivisions(ctx, services.DivisionFilter{})
	require.NoError(t, err)
	require.Empty(t, divs)

	got, err := store.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)
}

func TestStore_NestedInTxJoinsOuter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	err := store.InTx(ctx, func(txCtx context.Context) error {
		return store.InTx(txCtx, func(inner context.Context) error {
			org := services.Organization{Name: "Acme", Code: "ACME"}
			return store.InsertOrganization(inner, &org)
		})
	})
	require.NoError(t, err)

	orgs, err := store.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
}

func TestStore_SequencesAndLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	org := services.Organization{Name: "Acme", Code: "ACME"}
	require.NoError(t, store.InsertOrganization(ctx, &org))
	div := services.Division{Name: "Dept", Code: "D1", OrganizationID: org.ID}
	require.NoError(t, store.InsertDivision(ctx, &div))
	require.Equal(t, int64(1), div.ID)

	exists, err := store.DivisionCodeExists(ctx, org.ID, "D1", 0)
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = store.DivisionCodeExists(ctx, org.ID, "D1", div.ID)
	require.NoError(t, err)
	require.False(t, exists)

	_, err = store.GetDivision(ctx, 42)
	require.ErrorIs(t, err, services.ErrRecordNotFound)
	require.ErrorIs(t, store.LockRow(ctx, services.KindDivision, 42), services.ErrRecordNotFound)
	require.NoError(t, store.LockRow(ctx, services.KindDivision, div.ID))

	missing := services.Section{ID: 9, Name: "S", Code: "S", DivisionID: div.ID}
	require.ErrorIs(t, store.UpdateSection(ctx, &missing), services.ErrRecordNotFound)
}

func TestStore_EdgeJoinsAndBulkDeletes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New()

	lead := services.Position{Name: "Lead", Code: "L"}
	peer := services.Position{Name: "Peer", Code: "P"}
	require.NoError(t, store.InsertPosition(ctx, &lead))
	require.NoError(t, store.InsertPosition(ctx, &peer))
	staff := services.Staff{FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, store.InsertStaff(ctx, &staff))

	sp := services.StaffPosition{StaffID: staff.ID, PositionID: lead.ID, IsPrimary: true}
	require.NoError(t, store.InsertStaffPosition(ctx, &sp))
	in := services.FunctionalRelation{SourceID: peer.ID, TargetID: lead.ID, RelationType: "coordination"}
	out := services.FunctionalRelation{SourceID: lead.ID, TargetID: peer.ID, RelationType: "mentorship"}
	require.NoError(t, store.InsertFunctionalRelation(ctx, &in))
	require.NoError(t, store.InsertFunctionalRelation(ctx, &out))

	held, err := store.ListStaffAssignments(ctx, services.StaffPositionFilter{PositionID: &lead.ID})
	require.NoError(t, err)
	require.Len(t, held, 1)
	require.Equal(t, "Doe Jane", held[0].StaffName)
	require.Equal(t, "Lead", held[0].PositionName)

	edges, err := store.ListRelationEdges(ctx, services.RelationFilter{PositionID: &lead.ID})
	require.NoError(t, err)
	require.Len(t, edges, 2)

	n, err := store.DeleteFunctionalRelationsByPosition(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	n, err = store.DeleteStaffPositionsByPosition(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
