// Package orgtree defines the node shape shared by every org-chart view.
package orgtree

import (
	"fmt"
	"strconv"
	"strings"
)

type NodeType string

const (
	TypeRoot         NodeType = "root"
	TypeBoard        NodeType = "board"
	TypeOrganization NodeType = "organization"
	TypeDepartment   NodeType = "department"
	TypeDivision     NodeType = "division"
	TypeSection      NodeType = "section"
	TypePosition     NodeType = "position"
	TypeFunction     NodeType = "function"
	TypeLegalEntity  NodeType = "legal_entity"
	TypeLocation     NodeType = "location"
)

func (t NodeType) Valid() bool {
	switch t {
	case TypeRoot, TypeBoard, TypeOrganization, TypeDepartment, TypeDivision,
		TypeSection, TypePosition, TypeFunction, TypeLegalEntity, TypeLocation:
		return true
	}
	return false
}

// Synthetic id prefixes.
const (
	PrefixOrganization = "org"
	PrefixDivision     = "div"
	PrefixSection      = "sec"
	PrefixPosition     = "pos"
	PrefixFunction     = "fn"
	PrefixBoard        = "board"

	RootID  = "root"
	BoardID = "board-1"
)

func SyntheticID(prefix string, id int64) string {
	return prefix + "-" + strconv.FormatInt(id, 10)
}

// ParseSyntheticID splits "div-12" into ("div", 12).
func ParseSyntheticID(s string) (string, int64, error) {
	idx := strings.LastIndexByte(s, '-')
	if idx <= 0 || idx == len(s)-1 {
		return "", 0, fmt.Errorf("malformed node id %q", s)
	}
	id, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed node id %q: %w", s, err)
	}
	return s[:idx], id, nil
}

type Node struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      NodeType `json:"type"`
	Code      string   `json:"code,omitempty"`
	Children  []*Node  `json:"children"`
	StaffID   *int64   `json:"staffId,omitempty"`
	StaffName string   `json:"staffName,omitempty"`
	IsVacant  *bool    `json:"isVacant,omitempty"`
}

func New(id, name string, typ NodeType) *Node {
	return &Node{ID: id, Name: name, Type: typ, Children: []*Node{}}
}

func (n *Node) WithCode(code string) *Node {
	n.Code = code
	return n
}

func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Occupy marks a position node as filled by the given staff member.
func (n *Node) Occupy(staffID int64, staffName string) *Node {
	vacant := false
	n.StaffID = &staffID
	n.StaffName = staffName
	n.IsVacant = &vacant
	return n
}

func (n *Node) Vacate() *Node {
	vacant := true
	n.StaffID = nil
	n.StaffName = ""
	n.IsVacant = &vacant
	return n
}

func (n *Node) Vacant() bool {
	return n.IsVacant != nil && *n.IsVacant
}

// Walk visits the subtree depth first; returning false skips the children of n.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(n, 0)
}

func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Normalize replaces nil children slices so every node serializes "children": [].
func (n *Node) Normalize() *Node {
	n.Walk(func(c *Node, _ int) bool {
		if c.Children == nil {
			c.Children = []*Node{}
		}
		return true
	})
	return n
}
