// Package rules holds the keyword tables used to infer a management structure
// from position titles and division names.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

type Rank int

const (
	RankRegular Rank = iota
	RankTop
	RankChiefExecutive
)

func (r Rank) String() string {
	switch r {
	case RankTop:
		return "top"
	case RankChiefExecutive:
		return "chief_executive"
	default:
		return "regular"
	}
}

type Domain struct {
	Name     string   `yaml:"name"`
	Director []string `yaml:"director"`
	Division []string `yaml:"division"`
}

type document struct {
	RootName                string   `yaml:"root_name"`
	BoardName               string   `yaml:"board_name"`
	AttributeLeadership     []string `yaml:"attribute_leadership"`
	AttributeChiefExecutive []string `yaml:"attribute_chief_executive"`
	NameDirectorTitle       []string `yaml:"name_director_title"`
	NameChiefExecutive      []string `yaml:"name_chief_executive"`
	NameLeadership          []string `yaml:"name_leadership"`
	Domains                 []Domain `yaml:"domains"`
}

// Rules is read-only after Parse; every keyword is stored case folded.
type Rules struct {
	rootName  string
	boardName string

	attrLeadership []string
	attrChief      []string
	nameDirector   []string
	nameChief      []string
	nameLeadership []string
	domains        []Domain
}

// A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// Default returns the built-in rule set.
func Default() *Rules {
	r, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("rules: embedded defaults are invalid: %v", err))
	}
	return r
}

func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Rules, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	r := &Rules{
		rootName:       strings.TrimSpace(doc.RootName),
		boardName:      strings.TrimSpace(doc.BoardName),
		attrLeadership: foldAll(doc.AttributeLeadership),
		attrChief:      foldAll(doc.AttributeChiefExecutive),
		nameDirector:   foldAll(doc.NameDirectorTitle),
		nameChief:      foldAll(doc.NameChiefExecutive),
		nameLeadership: foldAll(doc.NameLeadership),
	}
	if r.rootName == "" || r.boardName == "" {
		return nil, fmt.Errorf("rules: root_name and board_name are required")
	}
	if len(r.nameDirector) == 0 && len(r.nameLeadership) == 0 && len(r.attrLeadership) == 0 {
		return nil, fmt.Errorf("rules: at least one leadership keyword is required")
	}
	seen := make(map[string]struct{}, len(doc.Domains))
	for _, d := range doc.Domains {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("rules: domain without a name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("rules: duplicate domain %q", name)
		}
		seen[name] = struct{}{}
		folded := Domain{Name: name, Director: foldAll(d.Director), Division: foldAll(d.Division)}
		if len(folded.Director) == 0 || len(folded.Division) == 0 {
			return nil, fmt.Errorf("rules: domain %q needs director and division keywords", name)
		}
		r.domains = append(r.domains, folded)
	}
	return r, nil
}

func (r *Rules) RootName() string  { return r.rootName }
func (r *Rules) BoardName() string { return r.boardName }

// Domains returns a copy of the domain table in match order.
func (r *Rules) Domains() []Domain {
	out := make([]Domain, len(r.domains))
	copy(out, r.domains)
	return out
}

// Classify ranks a position by its attribute and name.
func (r *Rules) Classify(name, attribute string) Rank {
	top, chief := false, false

	if attr := fold(attribute); attr != "" {
		if containsAny(attr, r.attrLeadership) {
			top = true
		}
		if containsAny(attr, r.attrChief) {
			top, chief = true, true
		}
	}

	if n := fold(name); n != "" {
		switch {
		case containsAny(n, r.nameDirector):
			top = true
			if containsAny(n, r.nameChief) {
				chief = true
			}
		case containsAny(n, r.nameLeadership):
			top = true
		}
	}

	switch {
	case chief:
		return RankChiefExecutive
	case top:
		return RankTop
	default:
		return RankRegular
	}
}

// DomainOf returns the first domain whose director keywords occur in title.
func (r *Rules) DomainOf(title string) (Domain, bool) {
	t := fold(title)
	if t == "" {
		return Domain{}, false
	}
	for _, d := range r.domains {
		if containsAny(t, d.Director) {
			return d, true
		}
	}
	return Domain{}, false
}

// Covers reports whether a division name belongs to the domain.
func (d Domain) Covers(divisionName string) bool {
	n := fold(divisionName)
	return n != "" && containsAny(n, d.Division)
}
