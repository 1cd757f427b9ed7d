package main

import (
	"strings"

	"golang.org/x/text/cases"
)

type column int

const (
	colName column = iota
	colSection
	colDivision
	colDescription
)

var headerAliases = map[column][]string{
	colName:        {"название", "наименование", "имя", "name", "title"},
	colSection:     {"отдел", "подразделение", "отделение", "section"},
	colDivision:    {"департамент", "дивизион", "division"},
	colDescription: {"описание", "комментарий", "description", "comment"},
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// detectColumns maps known header aliases to their cell index. Unknown headers are ignored.
func detectColumns(header []string) map[column]int {
	found := make(map[column]int, len(headerAliases))
	for idx, cell := range header {
		h := fold(cell)
		if h == "" {
			continue
		}
		for col, aliases := range headerAliases {
			if _, seen := found[col]; seen {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					found[col] = idx
					break
				}
			}
		}
	}
	return found
}

func cell(row []string, cols map[column]int, col column) string {
	idx, ok := cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// matchByName returns the first candidate whose folded name equals name, else the
// first whose folded name contains it.
func matchByName[T any](candidates []T, name string, nameOf func(T) string) (T, bool) {
	var zero T
	want := fold(name)
	if want == "" {
		return zero, false
	}
	for _, c := range candidates {
		if fold(nameOf(c)) == want {
			return c, true
		}
	}
	for _, c := range candidates {
		if strings.Contains(fold(nameOf(c)), want) {
			return c, true
		}
	}
	return zero, false
}
