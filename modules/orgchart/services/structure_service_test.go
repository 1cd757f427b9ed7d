package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

func TestStructure_OrganizationCycleAndCodes(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	root := h.org("Holding", "HLD", nil)
	mid := h.org("Group", "GRP", &root.ID)
	leaf := h.org("Unit", "UNT", &mid.ID)

	_, err := h.structure.UpdateOrganization(h.ctx, root.ID, services.Organization{Name: "Holding", Code: "HLD", ParentID: &leaf.ID})
	requireKind(t, err, services.ErrKindCycleDetected)

	_, err = h.structure.UpdateOrganization(h.ctx, mid.ID, services.Organization{Name: "Group", Code: "GRP", ParentID: &mid.ID})
	requireKind(t, err, services.ErrKindCycleDetected)

	_, err = h.structure.CreateOrganization(h.ctx, services.Organization{Name: "Dup", Code: "HLD"})
	svcErr := requireKind(t, err, services.ErrKindConflict)
	require.Equal(t, "ORGCHART_CODE_CONFLICT", svcErr.Code)

	_, err = h.structure.CreateOrganization(h.ctx, services.Organization{Name: "Orphan", Code: "ORP", ParentID: ptr(int64(77))})
	requireKind(t, err, services.ErrKindNotFound)

	_, err = h.structure.CreateOrganization(h.ctx, services.Organization{Name: "  ", Code: "X"})
	requireKind(t, err, services.ErrKindInvalid)
}

func TestStructure_DivisionScope(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	acme := h.org("Acme", "ACME", nil)
	other := h.org("Other", "OTH", nil)
	dept := h.division(acme.ID, "Dept", "D", nil)
	sub := h.division(acme.ID, "Sub", "S", &dept.ID)

	_, err := h.structure.CreateDivision(h.ctx, services.Division{Name: "X", Code: "X", OrganizationID: other.ID, ParentID: &dept.ID})
	requireKind(t, err, services.ErrKindScopeMismatch)

	_, err = h.structure.UpdateDivision(h.ctx, dept.ID, services.Division{Name: "Dept", Code: "D", OrganizationID: acme.ID, ParentID: &sub.ID})
	requireKind(t, err, services.ErrKindCycleDetected)

	_, err = h.structure.UpdateDivision(h.ctx, dept.ID, services.Division{Name: "Dept", Code: "D", OrganizationID: other.ID})
	requireKind(t, err, services.ErrKindScopeMismatch)

	// Codes are unique per organization only.
	h.division(other.ID, "Dept", "D", nil)
	_, err = h.structure.CreateDivision(h.ctx, services.Division{Name: "Again", Code: "D", OrganizationID: acme.ID})
	requireKind(t, err, services.ErrKindConflict)

	_, err = h.structure.CreateDivision(h.ctx, services.Division{Name: "Bad", Code: "B", OrganizationID: acme.ID, Type: "TEAM"})
	requireKind(t, err, services.ErrKindInvalid)
}

func TestStructure_PositionPlacement(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	acme := h.org("Acme", "ACME", nil)
	deptA := h.division(acme.ID, "A", "A", nil)
	deptB := h.division(acme.ID, "B", "B", nil)
	sec := h.section(deptA.ID, "Sec", "S")

	pos := h.position("Clerk", "CLK", nil, &sec.ID)
	require.NotNil(t, pos.DivisionID)
	require.Equal(t, deptA.ID, *pos.DivisionID)

	_, err := h.structure.CreatePosition(h.ctx, services.Position{Name: "X", Code: "X", DivisionID: &deptB.ID, SectionID: &sec.ID})
	requireKind(t, err, services.ErrKindScopeMismatch)

	_, err = h.structure.CreatePosition(h.ctx, services.Position{Name: "Clerk 2", Code: "CLK", DivisionID: &deptA.ID})
	requireKind(t, err, services.ErrKindConflict)

	h.position("Clerk", "CLK", &deptB.ID, nil)

	_, err = h.structure.CreateSection(h.ctx, services.Section{Name: "Dup", Code: "S", DivisionID: deptA.ID})
	requireKind(t, err, services.ErrKindConflict)
	_, err = h.structure.CreateSection(h.ctx, services.Section{Name: "Lost", Code: "L", DivisionID: 999})
	requireKind(t, err, services.ErrKindNotFound)
}

func TestStructure_SectionMoveKeepsPositionsPlaced(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	acme := h.org("Acme", "ACME", nil)
	deptA := h.division(acme.ID, "A", "A", nil)
	deptB := h.division(acme.ID, "B", "B", nil)
	sec := h.section(deptA.ID, "Sec", "S")
	pos := h.position("Clerk", "CLK", nil, &sec.ID)

	moved := sec
	moved.DivisionID = deptB.ID
	_, err := h.structure.UpdateSection(h.ctx, sec.ID, moved)
	requireKind(t, err, services.ErrKindScopeMismatch)

	got, err := h.structure.GetSection(h.ctx, sec.ID)
	require.NoError(t, err)
	require.Equal(t, deptA.ID, got.DivisionID)

	// Renaming within the same division is still allowed.
	renamed := sec
	renamed.Name = "Sec renamed"
	_, err = h.structure.UpdateSection(h.ctx, sec.ID, renamed)
	require.NoError(t, err)

	_, err = h.structure.UpdatePosition(h.ctx, pos.ID, pos)
	require.NoError(t, err)

	root, err := h.projection.GetHierarchy(h.ctx, &acme.ID)
	require.NoError(t, err)
	deptANode := root.Find(orgtree.SyntheticID(orgtree.PrefixDivision, deptA.ID))
	require.NotNil(t, deptANode)
	require.NotNil(t, deptANode.Find(orgtree.SyntheticID(orgtree.PrefixPosition, pos.ID)))

	require.NoError(t, h.guard.DeletePosition(h.ctx, pos.ID))
	out, err := h.structure.UpdateSection(h.ctx, sec.ID, moved)
	require.NoError(t, err)
	require.Equal(t, deptB.ID, out.DivisionID)
}

func TestStructure_ReparentTakesHierarchyLock(t *testing.T) {
	t.Parallel()
	store := newRecordingStore()
	h := newHarnessOn(t, store)

	holding := h.org("Holding", "HLD", nil)
	acme := h.org("Acme", "ACME", nil)
	dept := h.division(acme.ID, "Dept", "D", nil)
	other := h.division(acme.ID, "Other", "O", nil)
	require.Empty(t, store.locks)

	_, err := h.structure.UpdateDivision(h.ctx, other.ID, services.Division{
		Name: "Other", Code: "O", OrganizationID: acme.ID, ParentID: &dept.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []services.EntityKind{services.KindDivision}, store.locks)

	_, err = h.structure.UpdateOrganization(h.ctx, acme.ID, services.Organization{
		Name: "Acme", Code: "ACME", ParentID: &holding.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []services.EntityKind{services.KindDivision, services.KindOrganization}, store.locks)

	// Renames without a parent skip the lock.
	_, err = h.structure.UpdateDivision(h.ctx, dept.ID, services.Division{Name: "Dept 2", Code: "D", OrganizationID: acme.ID})
	require.NoError(t, err)
	require.Len(t, store.locks, 2)
}

func TestStructure_EdgeRules(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	acme := h.org("Acme", "ACME", nil)
	dept := h.division(acme.ID, "Dept", "D", nil)
	sec := h.section(dept.ID, "Sec", "S")
	a := h.position("A", "A", &dept.ID, nil)
	b := h.position("B", "B", &dept.ID, nil)
	fn := h.function(sec.ID, "Fn", "FUN_01")
	jane := h.staff("Jane", "Doe")

	h.occupy(jane.ID, a.ID)
	_, err := h.structure.CreateStaffPosition(h.ctx, services.StaffPosition{StaffID: jane.ID, PositionID: b.ID, IsPrimary: true})
	svcErr := requireKind(t, err, services.ErrKindConflict)
	require.Equal(t, "ORGCHART_PRIMARY_CONFLICT", svcErr.Code)

	_, err = h.structure.CreateStaffPosition(h.ctx, services.StaffPosition{StaffID: jane.ID, PositionID: b.ID})
	require.NoError(t, err)
	_, err = h.structure.CreateStaffPosition(h.ctx, services.StaffPosition{StaffID: jane.ID, PositionID: b.ID})
	requireKind(t, err, services.ErrKindConflict)

	_, err = h.structure.CreateStaffPosition(h.ctx, services.StaffPosition{
		StaffID: jane.ID, PositionID: b.ID,
		Period: services.Period{StartDate: ptr(fixedNow), EndDate: ptr(fixedNow.AddDate(0, 0, -1))},
	})
	requireKind(t, err, services.ErrKindInvalid)

	_, err = h.structure.CreateFunctionalAssignment(h.ctx, services.FunctionalAssignment{PositionID: a.ID, FunctionID: fn.ID, Percentage: 120})
	requireKind(t, err, services.ErrKindInvalid)
	h.assign(a.ID, fn.ID)
	_, err = h.structure.CreateFunctionalAssignment(h.ctx, services.FunctionalAssignment{PositionID: a.ID, FunctionID: fn.ID, Percentage: 50})
	requireKind(t, err, services.ErrKindConflict)

	_, err = h.structure.CreateFunctionalRelation(h.ctx, services.FunctionalRelation{SourceID: a.ID, TargetID: a.ID})
	svcErr = requireKind(t, err, services.ErrKindInvalid)
	require.Equal(t, "ORGCHART_RELATION_SELF_LOOP", svcErr.Code)

	_, err = h.structure.CreateFunctionalRelation(h.ctx, services.FunctionalRelation{SourceID: a.ID, TargetID: b.ID, Weight: -1})
	requireKind(t, err, services.ErrKindInvalid)

	rel, err := h.structure.CreateFunctionalRelation(h.ctx, services.FunctionalRelation{SourceID: a.ID, TargetID: b.ID})
	require.NoError(t, err)
	require.Equal(t, services.DefaultRelationType, rel.RelationType)

	_, err = h.structure.CreateFunctionalRelation(h.ctx, services.FunctionalRelation{SourceID: a.ID, TargetID: 404})
	requireKind(t, err, services.ErrKindNotFound)

	_, err = h.structure.CreateStaff(h.ctx, services.Staff{FirstName: "No", LastName: "Mail", Email: "not-an-email"})
	requireKind(t, err, services.ErrKindInvalid)
}

func TestStructure_SelfLoopsAllowedByOption(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(o *services.Options) { o.AllowRelationSelfLoops = true })

	acme := h.org("Acme", "ACME", nil)
	dept := h.division(acme.ID, "Dept", "D", nil)
	a := h.position("A", "A", &dept.ID, nil)

	rel := h.relate(a.ID, a.ID)
	require.Equal(t, a.ID, rel.TargetID)

	relations, err := h.matrix.RelationsForPosition(h.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	require.Equal(t, services.DirectionOutgoing, relations[0].Direction)
}

func TestStructure_SearchPositions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	acme := h.org("Acme", "ACME", nil)
	dept := h.division(acme.ID, "Dept", "D", nil)
	h.position("Senior Engineer", "ENG-S", &dept.ID, nil)
	h.position("Engineer", "ENG", &dept.ID, nil)
	h.position("Accountant", "ACC", &dept.ID, nil)

	matches, err := h.structure.SearchPositions(h.ctx, "engineer", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "Engineer", matches[0].Position.Name)

	_, err = h.structure.SearchPositions(h.ctx, " ", 10)
	requireKind(t, err, services.ErrKindInvalid)
}
