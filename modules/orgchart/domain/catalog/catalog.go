// Package catalog serves the legal-entity and location views from a static
// catalog until those scopes are recorded on organizations and staff.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
)

//go:embed default_catalog.toml
var defaultCatalog []byte

var ErrEntryNotFound = errors.New("catalog entry not found")

type Entry struct {
	Kind      string  `toml:"kind"`
	ID        int64   `toml:"id"`
	Name      string  `toml:"name"`
	Code      string  `toml:"code"`
	StaffID   *int64  `toml:"staff_id"`
	StaffName string  `toml:"staff_name"`
	Children  []Entry `toml:"children"`
}

type Section struct {
	RootName string  `toml:"root_name"`
	Entries  []Entry `toml:"entries"`
}

type Catalog struct {
	Legal    Section `toml:"legal"`
	Location Section `toml:"location"`
}

func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded defaults are invalid: %v", err))
	}
	return c
}

func Load(path string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var kindTypes = map[string]orgtree.NodeType{
	"organization": orgtree.TypeOrganization,
	"division":     orgtree.TypeDivision,
	"section":      orgtree.TypeSection,
	"position":     orgtree.TypePosition,
}

var kindPrefixes = map[string]string{
	"organization": orgtree.PrefixOrganization,
	"division":     orgtree.PrefixDivision,
	"section":      orgtree.PrefixSection,
	"position":     orgtree.PrefixPosition,
}

func (c *Catalog) validate() error {
	for name, sec := range map[string]Section{"legal": c.Legal, "location": c.Location} {
		seen := make(map[int64]struct{}, len(sec.Entries))
		for _, e := range sec.Entries {
			if _, dup := seen[e.ID]; dup {
				return fmt.Errorf("catalog: duplicate %s entry id %d", name, e.ID)
			}
			seen[e.ID] = struct{}{}
			if err := validateChildren(e.Children); err != nil {
				return fmt.Errorf("catalog: %s entry %d: %w", name, e.ID, err)
			}
		}
	}
	return nil
}

func validateChildren(entries []Entry) error {
	for _, e := range entries {
		if _, ok := kindTypes[e.Kind]; !ok {
			return fmt.Errorf("unknown kind %q", e.Kind)
		}
		if e.Name == "" {
			return fmt.Errorf("%s %d has no name", e.Kind, e.ID)
		}
		if err := validateChildren(e.Children); err != nil {
			return err
		}
	}
	return nil
}

// LegalEntities renders the legal-entity view. A zero id returns the synthetic root.
func (c *Catalog) LegalEntities(id int64) (*orgtree.Node, error) {
	return c.Legal.render(id, orgtree.TypeLegalEntity)
}

// Locations renders the location view. A zero id returns the synthetic root.
func (c *Catalog) Locations(id int64) (*orgtree.Node, error) {
	return c.Location.render(id, orgtree.TypeLocation)
}

func (s Section) render(id int64, typ orgtree.NodeType) (*orgtree.Node, error) {
	if id != 0 {
		for _, e := range s.Entries {
			if e.ID == id {
				return topNode(e, typ), nil
			}
		}
		return nil, fmt.Errorf("%w: %s %d", ErrEntryNotFound, typ, id)
	}
	root := orgtree.New(orgtree.RootID, s.RootName, orgtree.TypeRoot)
	for _, e := range s.Entries {
		root.Add(topNode(e, typ))
	}
	return root, nil
}

func topNode(e Entry, typ orgtree.NodeType) *orgtree.Node {
	n := orgtree.New(orgtree.SyntheticID(orgtree.PrefixOrganization, e.ID), e.Name, typ).WithCode(e.Code)
	for _, c := range e.Children {
		n.Add(childNode(c))
	}
	return n
}

func childNode(e Entry) *orgtree.Node {
	n := orgtree.New(orgtree.SyntheticID(kindPrefixes[e.Kind], e.ID), e.Name, kindTypes[e.Kind]).WithCode(e.Code)
	if e.Kind == "position" {
		if e.StaffID != nil {
			n.Occupy(*e.StaffID, e.StaffName)
		} else {
			n.Vacate()
		}
	}
	for _, c := range e.Children {
		n.Add(childNode(c))
	}
	return n
}
