package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/catalog"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/rules"
)

// Scope narrows a projection. Fields a view does not use are ignored.
type Scope struct {
	// OrganizationID roots the hierarchy view at one organization.
	OrganizationID *int64
	// EntityID selects one legal entity or location; zero renders all of them.
	EntityID int64
	// IncludeFunctions attaches assigned functions under position nodes.
	IncludeFunctions bool
}

type projectFunc func(ctx context.Context, scope Scope) (*orgtree.Node, error)

// ProjectionService renders the stored graph into tree views. Every build reads a
// fresh snapshot; nothing is cached between calls.
type ProjectionService struct {
	repo    Repository
	tx      Transactor
	rules   *rules.Rules
	catalog *catalog.Catalog
	opts    Options

	strategies map[orgtree.ViewKind]projectFunc
}

func NewProjectionService(repo Repository, tx Transactor, r *rules.Rules, c *catalog.Catalog, opts Options) *ProjectionService {
	if r == nil {
		r = rules.Default()
	}
	if c == nil {
		c = catalog.Default()
	}
	s := &ProjectionService{repo: repo, tx: tx, rules: r, catalog: c, opts: opts}
	s.strategies = map[orgtree.ViewKind]projectFunc{
		orgtree.ViewHierarchy:   s.projectHierarchy,
		orgtree.ViewBusiness:    s.projectBusiness,
		orgtree.ViewLegalEntity: s.projectLegalEntities,
		orgtree.ViewLocation:    s.projectLocations,
	}
	return s
}

// Project builds the named view.
func (s *ProjectionService) Project(ctx context.Context, kind orgtree.ViewKind, scope Scope) (*orgtree.Node, error) {
	ctx, span := tracer.Start(ctx, "orgchart.project")
	defer span.End()
	span.SetAttributes(
		attribute.String("orgchart.view", string(kind)),
		attribute.Bool("orgchart.include_functions", scope.IncludeFunctions),
	)

	strategy, ok := s.strategies[kind]
	if !ok {
		err := errInvalid("ORGCHART_INVALID_VIEW", fmt.Sprintf("unknown view %q", kind))
		maybeLogRejected(ctx, "projection.build", err)
		return nil, err
	}

	start := time.Now()
	root, err := strategy(ctx, scope)
	recordProjection(kind, root, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "projection failed")
		mapped := mapStoreError(err)
		maybeLogRejected(ctx, "projection.build", mapped)
		return nil, mapped
	}
	root.Normalize()
	span.SetAttributes(attribute.Int("orgchart.nodes", root.Count()))
	logWithFields(ctx, logrus.DebugLevel, "orgchart.projection.built", logrus.Fields{
		"view":        string(kind),
		"nodes":       root.Count(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return root, nil
}

func (s *ProjectionService) GetHierarchy(ctx context.Context, organizationID *int64) (*orgtree.Node, error) {
	return s.Project(ctx, orgtree.ViewHierarchy, Scope{OrganizationID: organizationID})
}

func (s *ProjectionService) GetBusinessStructure(ctx context.Context) (*orgtree.Node, error) {
	return s.Project(ctx, orgtree.ViewBusiness, Scope{})
}

func (s *ProjectionService) GetLegalEntityView(ctx context.Context, id int64) (*orgtree.Node, error) {
	return s.Project(ctx, orgtree.ViewLegalEntity, Scope{EntityID: id})
}

func (s *ProjectionService) GetLocationView(ctx context.Context, id int64) (*orgtree.Node, error) {
	return s.Project(ctx, orgtree.ViewLocation, Scope{EntityID: id})
}

func (s *ProjectionService) projectHierarchy(ctx context.Context, scope Scope) (*orgtree.Node, error) {
	return readTx(ctx, s.tx, func(txCtx context.Context) (*orgtree.Node, error) {
		if scope.OrganizationID != nil {
			if _, err := s.repo.GetOrganization(txCtx, *scope.OrganizationID); err != nil {
				return nil, notFoundAs(err, KindOrganization, *scope.OrganizationID)
			}
		}
		g, err := s.load(txCtx, scope.IncludeFunctions)
		if err != nil {
			return nil, err
		}
		return g.literal(scope.OrganizationID), nil
	})
}

func (s *ProjectionService) projectBusiness(ctx context.Context, scope Scope) (*orgtree.Node, error) {
	g, err := readTx(ctx, s.tx, func(txCtx context.Context) (*graph, error) {
		return s.load(txCtx, scope.IncludeFunctions)
	})
	if err != nil {
		return nil, err
	}
	if root, ok := g.management(s.rules); ok {
		return root, nil
	}
	projectionFallbacksTotal.Inc()
	logWithFields(ctx, logrus.WarnLevel, "orgchart.projection.fallback", logrus.Fields{
		"view":   string(orgtree.ViewBusiness),
		"reason": "no leadership position found",
	})
	return g.literal(nil), nil
}

func (s *ProjectionService) projectLegalEntities(_ context.Context, scope Scope) (*orgtree.Node, error) {
	root, err := s.catalog.LegalEntities(scope.EntityID)
	return root, catalogError(err, orgtree.TypeLegalEntity, scope.EntityID)
}

func (s *ProjectionService) projectLocations(_ context.Context, scope Scope) (*orgtree.Node, error) {
	root, err := s.catalog.Locations(scope.EntityID)
	return root, catalogError(err, orgtree.TypeLocation, scope.EntityID)
}

func catalogError(err error, typ orgtree.NodeType, id int64) error {
	if errors.Is(err, catalog.ErrEntryNotFound) {
		return errNotFound(EntityKind(typ), id)
	}
	return err
}

// graph is one consistent read of everything a view needs.
type graph struct {
	now time.Time

	organizations []Organization
	divisions     []Division
	sections      []Section
	positions     []Position

	occupants map[int64]StaffAssignment
	// functions is nil unless withFunctions is set.
	functions     map[int64][]AssignedFunction
	withFunctions bool
}

func (s *ProjectionService) load(ctx context.Context, withFunctions bool) (*graph, error) {
	g := &graph{now: s.opts.now(), withFunctions: withFunctions}

	orgs, err := s.repo.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	divisions, err := s.repo.ListDivisions(ctx, DivisionFilter{})
	if err != nil {
		return nil, err
	}
	sections, err := s.repo.ListSections(ctx, SectionFilter{})
	if err != nil {
		return nil, err
	}
	positions, err := s.repo.ListPositions(ctx, PositionFilter{})
	if err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListStaffAssignments(ctx, StaffPositionFilter{})
	if err != nil {
		return nil, err
	}

	g.organizations = orgs
	g.divisions = filterActive(divisions, func(d Division) bool { return d.IsActive })
	g.sections = filterActive(sections, func(s Section) bool { return s.IsActive })
	g.positions = filterActive(positions, func(p Position) bool { return p.IsActive })
	g.occupants = PickOccupants(assignments, g.now)

	if withFunctions {
		assigned, err := s.repo.ListAssignedFunctions(ctx, AssignmentFilter{})
		if err != nil {
			return nil, err
		}
		g.functions = make(map[int64][]AssignedFunction)
		for _, a := range assigned {
			if a.ActiveAt(g.now) {
				g.functions[a.PositionID] = append(g.functions[a.PositionID], a)
			}
		}
	}
	return g, nil
}

func filterActive[T any](items []T, active func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if active(item) {
			out = append(out, item)
		}
	}
	return out
}

// PickOccupants chooses, per position, the active staff assignment shown on the chart:
// a primary one first, then the lowest id.
func PickOccupants(assignments []StaffAssignment, now time.Time) map[int64]StaffAssignment {
	out := make(map[int64]StaffAssignment, len(assignments))
	for _, a := range assignments {
		if !a.ActiveAt(now) {
			continue
		}
		cur, ok := out[a.PositionID]
		if !ok || better(a, cur) {
			out[a.PositionID] = a
		}
	}
	return out
}

func better(a, b StaffAssignment) bool {
	if a.IsPrimary != b.IsPrimary {
		return a.IsPrimary
	}
	return a.ID < b.ID
}

func (g *graph) positionNode(p Position) *orgtree.Node {
	n := orgtree.New(orgtree.SyntheticID(orgtree.PrefixPosition, p.ID), p.Name, orgtree.TypePosition).WithCode(p.Code)
	if occ, ok := g.occupants[p.ID]; ok {
		n.Occupy(occ.StaffID, occ.StaffName)
	} else {
		n.Vacate()
	}
	if g.withFunctions {
		fns := g.functions[p.ID]
		sort.SliceStable(fns, func(i, j int) bool { return fns[i].FunctionCode < fns[j].FunctionCode })
		for _, fn := range fns {
			n.Add(orgtree.New(orgtree.SyntheticID(orgtree.PrefixFunction, fn.FunctionID), fn.FunctionName, orgtree.TypeFunction).
				WithCode(fn.FunctionCode))
		}
	}
	return n
}

func divisionNodeType(d Division) orgtree.NodeType {
	if d.Type == DivisionTypeDivision {
		return orgtree.TypeDivision
	}
	return orgtree.TypeDepartment
}

func byDisplayOrder(nameA, codeA string, idA int64, nameB, codeB string, idB int64) bool {
	if nameA != nameB {
		return nameA < nameB
	}
	if codeA != codeB {
		return codeA < codeB
	}
	return idA < idB
}
