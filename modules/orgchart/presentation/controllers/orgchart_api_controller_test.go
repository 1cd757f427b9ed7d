package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/modules/orgchart"
	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
	"github.com/iota-uz/orgmatrix/modules/orgchart/infrastructure/memstore"
	"github.com/iota-uz/orgmatrix/modules/orgchart/presentation/controllers"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
	"github.com/iota-uz/orgmatrix/pkg/httpapi"
)

type envelope struct {
	Code       string               `json:"code"`
	Message    string               `json:"message"`
	Meta       map[string]string    `json:"meta"`
	References []services.Reference `json:"references"`
}

type apiClient struct {
	t      *testing.T
	router *mux.Router
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	app := application.New(&application.ApplicationOptions{})
	module := orgchart.NewModule(&orgchart.ModuleOptions{
		Store:  configuration.StoreMemory,
		Memory: memstore.New(),
		Services: services.Options{
			Now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
		},
	})
	require.NoError(t, module.Register(app))

	r := mux.NewRouter()
	controllers.NewOrgChartAPIController(app).Register(r)
	return &apiClient{t: t, router: r}
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/orgchart/api"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

// create posts body and returns the new row id.
func (c *apiClient) create(path string, body any) int64 {
	c.t.Helper()
	rec := c.do(http.MethodPost, path, body)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID int64 `json:"id"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Positive(c.t, out.ID)
	return out.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type seeded struct {
	org, div, sec, pos, staff, fn int64
}

func seed(c *apiClient) seeded {
	var s seeded
	s.org = c.create("/organizations", map[string]any{"name": "Фотоматрица", "code": "PM"})
	s.div = c.create("/divisions", map[string]any{"name": "Производство", "code": "PROD", "organization_id": s.org})
	s.sec = c.create("/sections", map[string]any{"name": "Печать", "code": "PRINT", "division_id": s.div})
	s.pos = c.create("/positions", map[string]any{"name": "Печатник", "code": "PRINTER", "section_id": s.sec})
	s.staff = c.create("/staff", map[string]any{"first_name": "Иван", "last_name": "Иванов", "email": "ivanov@example.com"})
	s.fn = c.create("/functions", map[string]any{"name": "Печать заказов", "code": "FUN_01", "section_id": s.sec})
	c.create("/staff-positions", map[string]any{"staff_id": s.staff, "position_id": s.pos, "is_primary": true})
	return s
}

func TestAPI_HierarchyView(t *testing.T) {
	t.Parallel()
	c := newAPI(t)
	s := seed(c)
	c.create("/functional-assignments", map[string]any{"position_id": s.pos, "function_id": s.fn})

	rec := c.do(http.MethodGet, "/views/hierarchy?include=functions", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	root := decode[orgtree.Node](t, rec)
	require.Equal(t, orgtree.RootID, root.ID)

	pos := root.Find(orgtree.SyntheticID(orgtree.PrefixPosition, s.pos))
	require.NotNil(t, pos)
	require.False(t, pos.Vacant())
	require.Equal(t, "Иванов Иван", pos.StaffName)
	require.Len(t, pos.Children, 1)
	require.Equal(t, orgtree.TypeFunction, pos.Children[0].Type)

	rec = c.do(http.MethodGet, fmt.Sprintf("/views/hierarchy?organization_id=%d", s.org), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	scoped := decode[orgtree.Node](t, rec)
	require.Equal(t, orgtree.SyntheticID(orgtree.PrefixOrganization, s.org), scoped.ID)

	rec = c.do(http.MethodGet, "/views/hierarchy?organization_id=999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/views/hierarchy?organization_id=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "ORGCHART_INVALID_QUERY", decode[envelope](t, rec).Code)
}

func TestAPI_BusinessAndCatalogViews(t *testing.T) {
	t.Parallel()
	c := newAPI(t)

	rec := c.do(http.MethodGet, "/views/business", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, decode[orgtree.Node](t, rec).ID)

	rec = c.do(http.MethodGet, "/views/legal-entities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	legal := decode[orgtree.Node](t, rec)
	require.NotEmpty(t, legal.Children)

	rec = c.do(http.MethodGet, "/views/legal-entities/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/views/locations/404", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ORGCHART_NOT_FOUND", decode[envelope](t, rec).Code)
}

func TestAPI_DeletePositionBlockedThenCleared(t *testing.T) {
	t.Parallel()
	c := newAPI(t)
	s := seed(c)

	rec := c.do(http.MethodDelete, fmt.Sprintf("/positions/%d", s.pos), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[envelope](t, rec)
	require.Equal(t, "ORGCHART_DELETE_BLOCKED", body.Code)
	require.Equal(t, string(services.ErrKindConflict), body.Meta["kind"])
	require.Len(t, body.References, 1)
	require.Equal(t, services.KindStaffPosition, body.References[0].Kind)
	require.Equal(t, s.staff, body.References[0].CounterpartID)

	rec = c.do(http.MethodGet, fmt.Sprintf("/staff-positions?position_id=%d", s.pos), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]services.StaffAssignment](t, rec)
	require.Len(t, rows, 1)
	require.Equal(t, "Иванов Иван", rows[0].StaffName)

	rec = c.do(http.MethodDelete, fmt.Sprintf("/staff-positions/%d", rows[0].ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodDelete, fmt.Sprintf("/positions/%d", s.pos), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, fmt.Sprintf("/positions/%d", s.pos), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RequestValidation(t *testing.T) {
	t.Parallel()
	c := newAPI(t)
	s := seed(c)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing name", http.MethodPost, "/organizations", map[string]any{"code": "X"}, http.StatusBadRequest, "ORGCHART_INVALID_BODY"},
		{"unknown field", http.MethodPost, "/organizations", map[string]any{"name": "A", "code": "A", "color": "red"}, http.StatusBadRequest, "ORGCHART_INVALID_BODY"},
		{"bad division type", http.MethodPost, "/divisions", map[string]any{"name": "A", "code": "A", "organization_id": s.org, "type": "TEAM"}, http.StatusBadRequest, "ORGCHART_INVALID_BODY"},
		{"bad email", http.MethodPost, "/staff", map[string]any{"first_name": "A", "last_name": "B", "email": "nope"}, http.StatusBadRequest, "ORGCHART_INVALID_BODY"},
		{"bad date", http.MethodPost, "/staff-positions", map[string]any{"staff_id": s.staff, "position_id": s.pos, "start_date": "01.02.2026"}, http.StatusBadRequest, "ORGCHART_INVALID_BODY"},
		{"duplicate code", http.MethodPost, "/organizations", map[string]any{"name": "Again", "code": "PM"}, http.StatusConflict, "ORGCHART_CODE_CONFLICT"},
		{"bad id", http.MethodGet, "/positions/x", nil, http.StatusBadRequest, "ORGCHART_INVALID_ID"},
		{"missing row", http.MethodGet, "/sections/999", nil, http.StatusNotFound, "ORGCHART_NOT_FOUND"},
		{"percentage out of range", http.MethodPost, "/functional-assignments", map[string]any{"position_id": s.pos, "function_id": s.fn, "percentage": 150}, http.StatusBadRequest, "ORGCHART_INVALID_PERCENTAGE"},
		{"relation self loop", http.MethodPost, "/functional-relations", map[string]any{"source_id": s.pos, "target_id": s.pos}, http.StatusBadRequest, "ORGCHART_RELATION_SELF_LOOP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[envelope](t, rec)
			require.Equal(t, tt.code, body.Code)
			require.NotEmpty(t, body.Message)
		})
	}
}

func TestAPI_MatrixAndSearch(t *testing.T) {
	t.Parallel()
	c := newAPI(t)
	s := seed(c)
	lead := c.create("/positions", map[string]any{"name": "Начальник производства", "code": "HEAD", "division_id": s.div})
	c.create("/functional-assignments", map[string]any{"position_id": s.pos, "function_id": s.fn, "percentage": 60})

	relID := c.create("/functional-relations", map[string]any{"source_id": lead, "target_id": s.pos})
	rec := c.do(http.MethodGet, fmt.Sprintf("/functional-relations/%d", relID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rel := decode[services.FunctionalRelation](t, rec)
	require.Equal(t, 1.0, rel.Weight)
	require.Equal(t, services.DefaultRelationType, rel.RelationType)

	rec = c.do(http.MethodGet, fmt.Sprintf("/positions/%d/relations", s.pos), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	relations := decode[[]services.PositionRelation](t, rec)
	require.Len(t, relations, 1)
	require.Equal(t, services.DirectionIncoming, relations[0].Direction)
	require.Equal(t, lead, relations[0].CounterpartID)

	rec = c.do(http.MethodGet, fmt.Sprintf("/positions/%d/functions", s.pos), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fns := decode[[]services.AssignedFunction](t, rec)
	require.Len(t, fns, 1)
	require.Equal(t, 60, fns[0].Percentage)

	rec = c.do(http.MethodGet, fmt.Sprintf("/functions/%d/positions", s.fn), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]services.AssignedFunction](t, rec), 1)

	rec = c.do(http.MethodGet, fmt.Sprintf("/divisions/%d/functions?recursive=true", s.div), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]services.DivisionFunction](t, rec), 1)

	rec = c.do(http.MethodGet, fmt.Sprintf("/divisions/%d/functions?recursive=maybe", s.div), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/positions?q=печат", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	matches := decode[[]services.PositionMatch](t, rec)
	require.NotEmpty(t, matches)
	require.Equal(t, s.pos, matches[0].Position.ID)
}

func TestAPI_UpdateReplacesFields(t *testing.T) {
	t.Parallel()
	c := newAPI(t)
	s := seed(c)

	rec := c.do(http.MethodPut, fmt.Sprintf("/divisions/%d", s.div), map[string]any{
		"name": "Производство и логистика", "code": "PROD", "organization_id": s.org, "type": "DIVISION",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	div := decode[services.Division](t, rec)
	require.Equal(t, services.DivisionTypeDivision, div.Type)
	require.True(t, div.IsActive)

	rec = c.do(http.MethodPut, fmt.Sprintf("/divisions/%d", s.div), map[string]any{
		"name": "Loop", "code": "PROD", "organization_id": s.org, "parent_id": s.div,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	require.Equal(t, string(services.ErrKindCycleDetected), decode[envelope](t, rec).Meta["kind"])
}

func TestAPI_ErrorEnvelopeShape(t *testing.T) {
	t.Parallel()
	c := newAPI(t)

	rec := c.do(http.MethodGet, "/organizations/77", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "/orgchart/api/organizations/77", body.Meta["path"])
	require.Equal(t, string(services.KindOrganization), body.Meta["entity"])
	require.Nil(t, body.References)
}
