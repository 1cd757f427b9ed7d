package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iota-uz/orgmatrix/pkg/composables"
)

const (
	decisionBlocked = "blocked"
	decisionCleared = "cleared"
	decisionFailed  = "failed"
)

type gatherFunc func(ctx context.Context, id int64) ([]Reference, error)

type clearFunc func(ctx context.Context, id int64) error

// DeletionGuard deletes an entity only after proving nothing references it. The
// check and the delete share one transaction holding a lock on the row.
type DeletionGuard struct {
	repo Repository
	tx   Transactor
}

func NewDeletionGuard(repo Repository, tx Transactor) *DeletionGuard {
	return &DeletionGuard{repo: repo, tx: tx}
}

// DeletePosition is blocked by functional assignments, staff positions and
// relations in either direction. When cleared, the edge sets are removed before the row.
func (g *DeletionGuard) DeletePosition(ctx context.Context, id int64) error {
	return g.run(ctx, KindPosition, id, g.positionReferences, g.clearPosition)
}

func (g *DeletionGuard) DeleteDivision(ctx context.Context, id int64) error {
	return g.run(ctx, KindDivision, id, g.divisionReferences, g.repo.DeleteDivision)
}

func (g *DeletionGuard) DeleteSection(ctx context.Context, id int64) error {
	return g.run(ctx, KindSection, id, g.sectionReferences, g.repo.DeleteSection)
}

func (g *DeletionGuard) DeleteOrganization(ctx context.Context, id int64) error {
	return g.run(ctx, KindOrganization, id, g.organizationReferences, g.repo.DeleteOrganization)
}

func (g *DeletionGuard) DeleteFunction(ctx context.Context, id int64) error {
	return g.run(ctx, KindFunction, id, g.functionReferences, g.repo.DeleteFunction)
}

func (g *DeletionGuard) DeleteStaff(ctx context.Context, id int64) error {
	return g.run(ctx, KindStaff, id, g.staffReferences, g.repo.DeleteStaff)
}

func (g *DeletionGuard) run(ctx context.Context, kind EntityKind, id int64, gather gatherFunc, clear clearFunc) error {
	ctx, span := tracer.Start(ctx, "orgchart.guard.delete")
	defer span.End()
	span.SetAttributes(attribute.String("orgchart.entity", string(kind)), attribute.Int64("orgchart.entity_id", id))

	err := g.tx.InTx(ctx, func(txCtx context.Context) error {
		if err := g.repo.LockRow(txCtx, kind, id); err != nil {
			return notFoundAs(err, kind, id)
		}
		refs, err := gather(txCtx, id)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return errBlocked(kind, id, refs)
		}
		return clear(txCtx, id)
	})

	fields := logrus.Fields{"entity_type": string(kind), "entity_id": id}
	if requestID, ok := composables.UseRequestID(ctx); ok {
		fields["request_id"] = requestID
	}
	var svcErr *ServiceError
	switch {
	case err == nil:
		recordGuardDecision(kind, decisionCleared)
		logWithFields(ctx, logrus.InfoLevel, "orgchart.guard.cleared", fields)
		return nil
	case errors.As(err, &svcErr) && svcErr.Code == codeDeleteBlocked:
		recordGuardDecision(kind, decisionBlocked)
		fields["references"] = len(svcErr.References)
		logWithFields(ctx, logrus.InfoLevel, "orgchart.guard.blocked", fields)
		span.SetAttributes(attribute.Int("orgchart.references", len(svcErr.References)))
		return err
	default:
		recordGuardDecision(kind, decisionFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		mapped := mapStoreError(err)
		maybeLogRejected(ctx, "guard.delete", mapped)
		return mapped
	}
}

func (g *DeletionGuard) clearPosition(ctx context.Context, id int64) error {
	if _, err := g.repo.DeleteFunctionalAssignmentsByPosition(ctx, id); err != nil {
		return err
	}
	if _, err := g.repo.DeleteStaffPositionsByPosition(ctx, id); err != nil {
		return err
	}
	if _, err := g.repo.DeleteFunctionalRelationsByPosition(ctx, id); err != nil {
		return err
	}
	return g.repo.DeletePosition(ctx, id)
}

func (g *DeletionGuard) positionReferences(ctx context.Context, id int64) ([]Reference, error) {
	assigned, err := g.repo.ListAssignedFunctions(ctx, AssignmentFilter{PositionID: &id})
	if err != nil {
		return nil, err
	}
	holders, err := g.repo.ListStaffAssignments(ctx, StaffPositionFilter{PositionID: &id})
	if err != nil {
		return nil, err
	}
	edges, err := g.repo.ListRelationEdges(ctx, RelationFilter{PositionID: &id})
	if err != nil {
		return nil, err
	}

	refs := make([]Reference, 0, len(assigned)+len(holders)+len(edges))
	for _, a := range assigned {
		refs = append(refs, Reference{
			Kind: KindFunctionalAssignment, ID: a.ID,
			CounterpartKind: KindFunction, CounterpartID: a.FunctionID, CounterpartName: a.FunctionName,
		})
	}
	for _, h := range holders {
		refs = append(refs, Reference{
			Kind: KindStaffPosition, ID: h.ID,
			CounterpartKind: KindStaff, CounterpartID: h.StaffID, CounterpartName: h.StaffName,
		})
	}
	for _, rel := range orientRelations(id, edges) {
		refs = append(refs, Reference{
			Kind: KindFunctionalRelation, ID: rel.ID,
			CounterpartKind: KindPosition, CounterpartID: rel.CounterpartID, CounterpartName: rel.CounterpartName,
			Direction: rel.Direction,
		})
	}
	return refs, nil
}

func childRef(kind EntityKind, id int64, name string) Reference {
	return Reference{Kind: kind, ID: id, CounterpartKind: kind, CounterpartID: id, CounterpartName: name, Direction: "child"}
}

func (g *DeletionGuard) divisionReferences(ctx context.Context, id int64) ([]Reference, error) {
	children, err := g.repo.ListDivisions(ctx, DivisionFilter{ParentID: &id})
	if err != nil {
		return nil, err
	}
	sections, err := g.repo.ListSections(ctx, SectionFilter{DivisionID: &id})
	if err != nil {
		return nil, err
	}
	positions, err := g.repo.ListPositions(ctx, PositionFilter{DivisionID: &id})
	if err != nil {
		return nil, err
	}
	var refs []Reference
	for _, d := range children {
		refs = append(refs, childRef(KindDivision, d.ID, d.Name))
	}
	for _, s := range sections {
		refs = append(refs, childRef(KindSection, s.ID, s.Name))
	}
	for _, p := range positions {
		refs = append(refs, childRef(KindPosition, p.ID, p.Name))
	}
	return refs, nil
}

func (g *DeletionGuard) sectionReferences(ctx context.Context, id int64) ([]Reference, error) {
	positions, err := g.repo.ListPositions(ctx, PositionFilter{SectionID: &id})
	if err != nil {
		return nil, err
	}
	functions, err := g.repo.ListFunctions(ctx, FunctionFilter{SectionID: &id})
	if err != nil {
		return nil, err
	}
	var refs []Reference
	for _, p := range positions {
		refs = append(refs, childRef(KindPosition, p.ID, p.Name))
	}
	for _, f := range functions {
		refs = append(refs, childRef(KindFunction, f.ID, f.Name))
	}
	return refs, nil
}

func (g *DeletionGuard) organizationReferences(ctx context.Context, id int64) ([]Reference, error) {
	orgs, err := g.repo.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	divisions, err := g.repo.ListDivisions(ctx, DivisionFilter{OrganizationID: &id})
	if err != nil {
		return nil, err
	}
	staff, err := g.repo.ListStaff(ctx, StaffFilter{OrganizationID: &id})
	if err != nil {
		return nil, err
	}
	var refs []Reference
	for _, o := range orgs {
		if o.ParentID != nil && *o.ParentID == id && o.ID != id {
			refs = append(refs, childRef(KindOrganization, o.ID, o.Name))
		}
	}
	for _, d := range divisions {
		refs = append(refs, childRef(KindDivision, d.ID, d.Name))
	}
	for _, s := range staff {
		refs = append(refs, childRef(KindStaff, s.ID, s.FullName()))
	}
	return refs, nil
}

func (g *DeletionGuard) functionReferences(ctx context.Context, id int64) ([]Reference, error) {
	assigned, err := g.repo.ListAssignedFunctions(ctx, AssignmentFilter{FunctionID: &id})
	if err != nil {
		return nil, err
	}
	refs := make([]Reference, 0, len(assigned))
	for _, a := range assigned {
		refs = append(refs, Reference{
			Kind: KindFunctionalAssignment, ID: a.ID,
			CounterpartKind: KindPosition, CounterpartID: a.PositionID, CounterpartName: a.PositionName,
		})
	}
	return refs, nil
}

func (g *DeletionGuard) staffReferences(ctx context.Context, id int64) ([]Reference, error) {
	held, err := g.repo.ListStaffAssignments(ctx, StaffPositionFilter{StaffID: &id})
	if err != nil {
		return nil, err
	}
	refs := make([]Reference, 0, len(held))
	for _, h := range held {
		refs = append(refs, Reference{
			Kind: KindStaffPosition, ID: h.ID,
			CounterpartKind: KindPosition, CounterpartID: h.PositionID, CounterpartName: h.PositionName,
		})
	}
	return refs, nil
}
