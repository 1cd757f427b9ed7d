package services

import (
	"strings"
	"time"
)

type EntityKind string

const (
	KindOrganization         EntityKind = "organization"
	KindDivision             EntityKind = "division"
	KindSection              EntityKind = "section"
	KindPosition             EntityKind = "position"
	KindStaff                EntityKind = "staff"
	KindFunction             EntityKind = "function"
	KindStaffPosition        EntityKind = "staff_position"
	KindFunctionalAssignment EntityKind = "functional_assignment"
	KindFunctionalRelation   EntityKind = "functional_relation"
)

type DivisionType string

const (
	DivisionTypeDepartment DivisionType = "DEPARTMENT"
	DivisionTypeDivision   DivisionType = "DIVISION"
)

func (t DivisionType) Valid() bool {
	return t == DivisionTypeDepartment || t == DivisionTypeDivision
}

type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	OrgType     string    `json:"org_type,omitempty"`
	ParentID    *int64    `json:"parent_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Division struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Code           string       `json:"code"`
	Description    string       `json:"description,omitempty"`
	OrganizationID int64        `json:"organization_id"`
	ParentID       *int64       `json:"parent_id"`
	Type           DivisionType `json:"type"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type Section struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	DivisionID  int64     `json:"division_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Position struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Attribute   string    `json:"attribute,omitempty"`
	DivisionID  *int64    `json:"division_id"`
	SectionID   *int64    `json:"section_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Staff struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	MiddleName     string     `json:"middle_name,omitempty"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
	OrganizationID *int64     `json:"organization_id"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FullName renders "Last First [Middle]".
func (s Staff) FullName() string {
	return joinName(s.LastName, s.FirstName, s.MiddleName)
}

func joinName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

type Function struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	SectionID   int64     `json:"section_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Period is a closed date window; nil bounds are open.
type Period struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (p Period) ActiveAt(t time.Time) bool {
	if p.StartDate != nil && t.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && t.After(*p.EndDate) {
		return false
	}
	return true
}

func (p Period) Overlaps(o Period) bool {
	if p.EndDate != nil && o.StartDate != nil && p.EndDate.Before(*o.StartDate) {
		return false
	}
	if o.EndDate != nil && p.StartDate != nil && o.EndDate.Before(*p.StartDate) {
		return false
	}
	return true
}

func (p Period) valid() bool {
	return p.StartDate == nil || p.EndDate == nil || !p.EndDate.Before(*p.StartDate)
}

type StaffPosition struct {
	ID         int64 `json:"id"`
	StaffID    int64 `json:"staff_id"`
	PositionID int64 `json:"position_id"`
	IsPrimary  bool  `json:"is_primary"`
	Period
	CreatedAt time.Time `json:"created_at"`
}

type FunctionalAssignment struct {
	ID         int64 `json:"id"`
	PositionID int64 `json:"position_id"`
	FunctionID int64 `json:"function_id"`
	Percentage int   `json:"percentage"`
	IsPrimary  bool  `json:"is_primary"`
	Period
	CreatedAt time.Time `json:"created_at"`
}

const DefaultRelationType = "coordination"

type FunctionalRelation struct {
	ID           int64     `json:"id"`
	SourceID     int64     `json:"source_id"`
	TargetID     int64     `json:"target_id"`
	RelationType string    `json:"relation_type"`
	Weight       float64   `json:"weight"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffAssignment is a StaffPosition joined with both endpoint names.
type StaffAssignment struct {
	StaffPosition
	StaffName    string `json:"staff_name"`
	PositionName string `json:"position_name"`
}

// AssignedFunction is a FunctionalAssignment joined with both endpoint names.
type AssignedFunction struct {
	FunctionalAssignment
	FunctionName string `json:"function_name"`
	FunctionCode string `json:"function_code"`
	PositionName string `json:"position_name"`
}

// RelationEdge is a FunctionalRelation joined with both endpoint names.
type RelationEdge struct {
	FunctionalRelation
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
}

// DivisionFunction is a function reachable through a position placed in a division.
type DivisionFunction struct {
	DivisionID   int64  `json:"division_id"`
	PositionID   int64  `json:"position_id"`
	PositionName string `json:"position_name"`
	FunctionID   int64  `json:"function_id"`
	FunctionName string `json:"function_name"`
	FunctionCode string `json:"function_code"`
	Percentage   int    `json:"percentage"`
}
