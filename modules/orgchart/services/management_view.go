package services

import (
	"sort"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/rules"
)

// leadership is the outcome of ranking every active position.
type leadership struct {
	chief     *Position
	directors []Position
	top       map[int64]bool
}

func classifyLeadership(positions []Position, r *rules.Rules) leadership {
	ordered := make([]Position, len(positions))
	copy(ordered, positions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	out := leadership{top: make(map[int64]bool)}
	for i := range ordered {
		p := ordered[i]
		rank := r.Classify(p.Name, p.Attribute)
		if rank == rules.RankRegular {
			continue
		}
		out.top[p.ID] = true
		if rank == rules.RankChiefExecutive && out.chief == nil {
			out.chief = &ordered[i]
			continue
		}
		out.directors = append(out.directors, p)
	}
	if out.chief == nil && len(out.directors) > 0 {
		first := out.directors[0]
		out.chief = &first
		out.directors = out.directors[1:]
	}
	return out
}

// assignDivisions maps each eligible division to the director that takes it. Each
// director takes the unassigned divisions its domain covers; the last director also
// takes everything still unassigned. With no directors the chief takes them all.
func assignDivisions(lead leadership, eligible []Division, r *rules.Rules) map[int64][]Division {
	out := make(map[int64][]Division)
	if len(lead.directors) == 0 {
		if lead.chief != nil && len(eligible) > 0 {
			out[lead.chief.ID] = append(out[lead.chief.ID], eligible...)
		}
		return out
	}

	assigned := make(map[int64]bool, len(eligible))
	last := len(lead.directors) - 1
	for i, director := range lead.directors {
		domain, ok := r.DomainOf(director.Name)
		for _, div := range eligible {
			if assigned[div.ID] {
				continue
			}
			if (ok && domain.Covers(div.Name)) || i == last {
				assigned[div.ID] = true
				out[director.ID] = append(out[director.ID], div)
			}
		}
	}
	return out
}

// management infers Board -> chief -> directors -> departments from titles. It
// reports false when no position ranks as leadership.
func (g *graph) management(r *rules.Rules) (*orgtree.Node, bool) {
	lead := classifyLeadership(g.positions, r)
	if lead.chief == nil {
		return nil, false
	}

	l := g.layout()
	rootDivisions := make(map[int64]*hierarchy.Node[Division])
	for _, roots := range l.divisionRoots {
		for _, hn := range roots {
			rootDivisions[hn.Item.ID] = hn
		}
	}
	visible := make(map[int64]bool, len(g.organizations))
	for _, o := range hierarchy.Flatten(g.organizationForest(nil)) {
		visible[o.ID] = true
	}
	eligible := make([]Division, 0, len(rootDivisions))
	for _, hn := range rootDivisions {
		if hn.Item.Type == DivisionTypeDepartment && visible[hn.Item.OrganizationID] {
			eligible = append(eligible, hn.Item)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })

	byHolder := assignDivisions(lead, eligible, r)
	render := divisionRender{skip: lead.top, omitEmptySections: true}
	attach := func(holder *orgtree.Node, positionID int64) {
		for _, div := range byHolder[positionID] {
			holder.Add(g.divisionNode(l, rootDivisions[div.ID], render))
		}
	}

	chiefNode := g.positionNode(*lead.chief)
	attach(chiefNode, lead.chief.ID)
	for _, director := range lead.directors {
		directorNode := g.positionNode(director)
		attach(directorNode, director.ID)
		chiefNode.Add(directorNode)
	}

	board := orgtree.New(orgtree.BoardID, r.BoardName(), orgtree.TypeBoard).Add(chiefNode)
	return orgtree.New(orgtree.RootID, r.RootName(), orgtree.TypeRoot).Add(board), true
}
