package services

import (
	"sort"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
)

const HierarchyRootName = "Организационная структура"

// layout indexes the snapshot by placement so that both tree views can share it.
type layout struct {
	divisionRoots    map[int64][]*hierarchy.Node[Division]
	directPositions  map[int64][]Position
	sectionPositions map[int64][]Position
	sections         map[int64][]Section
}

func (g *graph) layout() *layout {
	l := &layout{
		divisionRoots:    make(map[int64][]*hierarchy.Node[Division]),
		directPositions:  make(map[int64][]Position),
		sectionPositions: make(map[int64][]Position),
		sections:         make(map[int64][]Section),
	}

	forest := hierarchy.Build(g.divisions, hierarchy.Options[Division, int64]{
		Key:    func(d Division) int64 { return d.ID },
		Parent: divisionParent,
		IsRoot: func(d Division) bool { return d.ParentID == nil },
		Less: func(a, b Division) bool {
			return byDisplayOrder(a.Name, a.Code, a.ID, b.Name, b.Code, b.ID)
		},
	})
	for _, root := range forest {
		orgID := root.Item.OrganizationID
		l.divisionRoots[orgID] = append(l.divisionRoots[orgID], root)
	}

	for _, sec := range g.sections {
		l.sections[sec.DivisionID] = append(l.sections[sec.DivisionID], sec)
	}
	for _, p := range g.positions {
		switch {
		case p.SectionID != nil:
			l.sectionPositions[*p.SectionID] = append(l.sectionPositions[*p.SectionID], p)
		case p.DivisionID != nil:
			l.directPositions[*p.DivisionID] = append(l.directPositions[*p.DivisionID], p)
		}
	}
	for _, secs := range l.sections {
		sort.Slice(secs, func(i, j int) bool {
			return byDisplayOrder(secs[i].Name, secs[i].Code, secs[i].ID, secs[j].Name, secs[j].Code, secs[j].ID)
		})
	}
	for _, m := range []map[int64][]Position{l.directPositions, l.sectionPositions} {
		for _, ps := range m {
			sort.Slice(ps, func(i, j int) bool {
				return byDisplayOrder(ps[i].Name, ps[i].Code, ps[i].ID, ps[j].Name, ps[j].Code, ps[j].ID)
			})
		}
	}
	return l
}

type divisionRender struct {
	// skip hides positions that are already shown elsewhere in the view.
	skip              map[int64]bool
	omitEmptySections bool
}

func (g *graph) divisionNode(l *layout, hn *hierarchy.Node[Division], r divisionRender) *orgtree.Node {
	d := hn.Item
	n := orgtree.New(orgtree.SyntheticID(orgtree.PrefixDivision, d.ID), d.Name, divisionNodeType(d)).WithCode(d.Code)

	for _, p := range l.directPositions[d.ID] {
		if !r.skip[p.ID] {
			n.Add(g.positionNode(p))
		}
	}
	for _, sec := range l.sections[d.ID] {
		secNode := orgtree.New(orgtree.SyntheticID(orgtree.PrefixSection, sec.ID), sec.Name, orgtree.TypeSection).WithCode(sec.Code)
		for _, p := range l.sectionPositions[sec.ID] {
			if !r.skip[p.ID] {
				secNode.Add(g.positionNode(p))
			}
		}
		if r.omitEmptySections && len(secNode.Children) == 0 {
			continue
		}
		n.Add(secNode)
	}
	for _, child := range hn.Children {
		n.Add(g.divisionNode(l, child, r))
	}
	return n
}

// literal renders Organization -> Division -> Section -> Position. Without an
// organization the result hangs under a synthetic root.
func (g *graph) literal(organizationID *int64) *orgtree.Node {
	l := g.layout()
	forest := g.organizationForest(organizationID)

	var render func(hn *hierarchy.Node[Organization]) *orgtree.Node
	render = func(hn *hierarchy.Node[Organization]) *orgtree.Node {
		o := hn.Item
		n := orgtree.New(orgtree.SyntheticID(orgtree.PrefixOrganization, o.ID), o.Name, orgtree.TypeOrganization).WithCode(o.Code)
		for _, div := range l.divisionRoots[o.ID] {
			n.Add(g.divisionNode(l, div, divisionRender{}))
		}
		for _, child := range hn.Children {
			n.Add(render(child))
		}
		return n
	}

	if organizationID != nil && len(forest) == 1 {
		return render(forest[0])
	}
	root := orgtree.New(orgtree.RootID, HierarchyRootName, orgtree.TypeRoot)
	for _, hn := range forest {
		root.Add(render(hn))
	}
	return root
}

// organizationForest returns the organizations a literal view shows: active ones
// reachable from a root, or from organizationID when it is set.
func (g *graph) organizationForest(organizationID *int64) []*hierarchy.Node[Organization] {
	orgs := filterActive(g.organizations, func(o Organization) bool {
		return o.IsActive || (organizationID != nil && o.ID == *organizationID)
	})
	return hierarchy.Build(orgs, hierarchy.Options[Organization, int64]{
		Key: func(o Organization) int64 { return o.ID },
		Parent: func(o Organization) (int64, bool) {
			if o.ParentID == nil {
				return 0, false
			}
			return *o.ParentID, true
		},
		IsRoot: func(o Organization) bool {
			if organizationID != nil {
				return o.ID == *organizationID
			}
			return o.ParentID == nil
		},
		Less: func(a, b Organization) bool {
			return byDisplayOrder(a.Name, a.Code, a.ID, b.Name, b.Code, b.ID)
		},
	})
}
