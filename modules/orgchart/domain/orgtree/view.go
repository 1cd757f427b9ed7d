package orgtree

import (
	"fmt"
	"strings"
)

// ViewKind names a projection of the org graph.
type ViewKind string

const (
	ViewHierarchy   ViewKind = "hierarchy"
	ViewBusiness    ViewKind = "business"
	ViewLegalEntity ViewKind = "legal_entity"
	ViewLocation    ViewKind = "location"
)

var ViewKinds = []ViewKind{ViewHierarchy, ViewBusiness, ViewLegalEntity, ViewLocation}

func ParseViewKind(s string) (ViewKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch normalized {
	case "hierarchy", "literal":
		return ViewHierarchy, nil
	case "business", "management":
		return ViewBusiness, nil
	case "legal_entity", "legal_entities", "legal":
		return ViewLegalEntity, nil
	case "location", "locations":
		return ViewLocation, nil
	}
	return "", fmt.Errorf("unknown view kind %q", s)
}
