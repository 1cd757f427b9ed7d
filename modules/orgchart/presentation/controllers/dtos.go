package controllers

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// dto is a request body that converts into a service entity.
type dto[T any] interface {
	entity() (T, error)
}

func isActive(v *bool) bool {
	return v == nil || *v
}

// parseDate accepts YYYY-MM-DD or RFC3339; an empty string is an open bound.
func parseDate(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	t = t.UTC()
	return &t, nil
}

func parsePeriod(start, end string) (services.Period, error) {
	from, err := parseDate("start_date", start)
	if err != nil {
		return services.Period{}, err
	}
	to, err := parseDate("end_date", end)
	if err != nil {
		return services.Period{}, err
	}
	return services.Period{StartDate: from, EndDate: to}, nil
}

type organizationRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Code        string `json:"code" validate:"required,max=64"`
	Description string `json:"description"`
	OrgType     string `json:"org_type" validate:"max=64"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

func (r organizationRequest) entity() (services.Organization, error) {
	return services.Organization{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		OrgType:     r.OrgType,
		ParentID:    r.ParentID,
		IsActive:    isActive(r.IsActive),
	}, nil
}

type divisionRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Code           string `json:"code" validate:"required,max=64"`
	Description    string `json:"description"`
	OrganizationID int64  `json:"organization_id" validate:"required,gt=0"`
	ParentID       *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Type           string `json:"type" validate:"omitempty,oneof=DEPARTMENT DIVISION"`
	IsActive       *bool  `json:"is_active"`
}

func (r divisionRequest) entity() (services.Division, error) {
	return services.Division{
		Name:           r.Name,
		Code:           r.Code,
		Description:    r.Description,
		OrganizationID: r.OrganizationID,
		ParentID:       r.ParentID,
		Type:           services.DivisionType(r.Type),
		IsActive:       isActive(r.IsActive),
	}, nil
}

type sectionRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Code        string `json:"code" validate:"required,max=64"`
	Description string `json:"description"`
	DivisionID  int64  `json:"division_id" validate:"required,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

func (r sectionRequest) entity() (services.Section, error) {
	return services.Section{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		DivisionID:  r.DivisionID,
		IsActive:    isActive(r.IsActive),
	}, nil
}

type positionRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Code        string `json:"code" validate:"required,max=64"`
	Description string `json:"description"`
	Attribute   string `json:"attribute" validate:"max=255"`
	DivisionID  *int64 `json:"division_id" validate:"omitempty,gt=0"`
	SectionID   *int64 `json:"section_id" validate:"omitempty,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

func (r positionRequest) entity() (services.Position, error) {
	return services.Position{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		Attribute:   r.Attribute,
		DivisionID:  r.DivisionID,
		SectionID:   r.SectionID,
		IsActive:    isActive(r.IsActive),
	}, nil
}

type staffRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=128"`
	LastName       string `json:"last_name" validate:"required,max=128"`
	MiddleName     string `json:"middle_name" validate:"max=128"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"max=32"`
	HireDate       string `json:"hire_date"`
	OrganizationID *int64 `json:"organization_id" validate:"omitempty,gt=0"`
	IsActive       *bool  `json:"is_active"`
}

func (r staffRequest) entity() (services.Staff, error) {
	hired, err := parseDate("hire_date", r.HireDate)
	if err != nil {
		return services.Staff{}, err
	}
	return services.Staff{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		MiddleName:     r.MiddleName,
		Email:          r.Email,
		Phone:          r.Phone,
		HireDate:       hired,
		OrganizationID: r.OrganizationID,
		IsActive:       isActive(r.IsActive),
	}, nil
}

type functionRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Code        string `json:"code" validate:"required,max=64"`
	Description string `json:"description"`
	SectionID   int64  `json:"section_id" validate:"required,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

func (r functionRequest) entity() (services.Function, error) {
	return services.Function{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		SectionID:   r.SectionID,
		IsActive:    isActive(r.IsActive),
	}, nil
}

type staffPositionRequest struct {
	StaffID    int64  `json:"staff_id" validate:"required,gt=0"`
	PositionID int64  `json:"position_id" validate:"required,gt=0"`
	IsPrimary  bool   `json:"is_primary"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (r staffPositionRequest) entity() (services.StaffPosition, error) {
	period, err := parsePeriod(r.StartDate, r.EndDate)
	if err != nil {
		return services.StaffPosition{}, err
	}
	return services.StaffPosition{
		StaffID:    r.StaffID,
		PositionID: r.PositionID,
		IsPrimary:  r.IsPrimary,
		Period:     period,
	}, nil
}

type functionalAssignmentRequest struct {
	PositionID int64 `json:"position_id" validate:"required,gt=0"`
	FunctionID int64 `json:"function_id" validate:"required,gt=0"`
	// Percentage defaults to 100; range is checked by the service.
	Percentage *int   `json:"percentage"`
	IsPrimary  bool   `json:"is_primary"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (r functionalAssignmentRequest) entity() (services.FunctionalAssignment, error) {
	period, err := parsePeriod(r.StartDate, r.EndDate)
	if err != nil {
		return services.FunctionalAssignment{}, err
	}
	percentage := 100
	if r.Percentage != nil {
		percentage = *r.Percentage
	}
	return services.FunctionalAssignment{
		PositionID: r.PositionID,
		FunctionID: r.FunctionID,
		Percentage: percentage,
		IsPrimary:  r.IsPrimary,
		Period:     period,
	}, nil
}

type functionalRelationRequest struct {
	SourceID     int64    `json:"source_id" validate:"required,gt=0"`
	TargetID     int64    `json:"target_id" validate:"required,gt=0"`
	RelationType string   `json:"relation_type" validate:"max=64"`
	Weight       *float64 `json:"weight"`
	Description  string   `json:"description"`
}

func (r functionalRelationRequest) entity() (services.FunctionalRelation, error) {
	weight := 1.0
	if r.Weight != nil {
		weight = *r.Weight
	}
	return services.FunctionalRelation{
		SourceID:     r.SourceID,
		TargetID:     r.TargetID,
		RelationType: r.RelationType,
		Weight:       weight,
		Description:  r.Description,
	}, nil
}

// describeValidation flattens validator errors into "field: rule" pairs.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, ", ")
}
