package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/composables"
	"github.com/iota-uz/orgmatrix/pkg/httpapi"
)

const defaultSearchLimit = 20

type OrgChartAPIController struct {
	structure  *services.StructureService
	matrix     *services.MatrixService
	projection *services.ProjectionService
	guard      *services.DeletionGuard
	apiPrefix  string
}

func NewOrgChartAPIController(app application.Application) application.Controller {
	return &OrgChartAPIController{
		structure:  app.Service(services.StructureService{}).(*services.StructureService),
		matrix:     app.Service(services.MatrixService{}).(*services.MatrixService),
		projection: app.Service(services.ProjectionService{}).(*services.ProjectionService),
		guard:      app.Service(services.DeletionGuard{}).(*services.DeletionGuard),
		apiPrefix:  "/orgchart/api",
	}
}

func (c *OrgChartAPIController) Key() string {
	return c.apiPrefix
}

func (c *OrgChartAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/views/hierarchy", instrument("views.hierarchy", c.GetHierarchy)).Methods(http.MethodGet)
	api.HandleFunc("/views/business", instrument("views.business", c.GetBusinessStructure)).Methods(http.MethodGet)
	api.HandleFunc("/views/legal-entities", instrument("views.legal_entities", c.GetLegalEntities)).Methods(http.MethodGet)
	api.HandleFunc("/views/legal-entities/{id}", instrument("views.legal_entity", c.GetLegalEntities)).Methods(http.MethodGet)
	api.HandleFunc("/views/locations", instrument("views.locations", c.GetLocations)).Methods(http.MethodGet)
	api.HandleFunc("/views/locations/{id}", instrument("views.location", c.GetLocations)).Methods(http.MethodGet)

	api.HandleFunc("/positions/{id}/functions", instrument("matrix.position_functions", c.PositionFunctions)).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id}/relations", instrument("matrix.position_relations", c.PositionRelations)).Methods(http.MethodGet)
	api.HandleFunc("/functions/{id}/positions", instrument("matrix.function_positions", c.FunctionPositions)).Methods(http.MethodGet)
	api.HandleFunc("/divisions/{id}/functions", instrument("matrix.division_functions", c.DivisionFunctions)).Methods(http.MethodGet)

	s := c.structure
	register(api, resource[services.Organization, organizationRequest]{
		path: "organizations",
		list: func(r *http.Request) (any, error) {
			return s.ListOrganizations(r.Context())
		},
		get:    s.GetOrganization,
		create: s.CreateOrganization,
		update: s.UpdateOrganization,
		remove: c.guard.DeleteOrganization,
	})
	register(api, resource[services.Division, divisionRequest]{
		path: "divisions",
		list: func(r *http.Request) (any, error) {
			var f services.DivisionFilter
			if err := queryIDs(r, map[string]**int64{"organization_id": &f.OrganizationID, "parent_id": &f.ParentID}); err != nil {
				return nil, err
			}
			return s.ListDivisions(r.Context(), f)
		},
		get:    s.GetDivision,
		create: s.CreateDivision,
		update: s.UpdateDivision,
		remove: c.guard.DeleteDivision,
	})
	register(api, resource[services.Section, sectionRequest]{
		path: "sections",
		list: func(r *http.Request) (any, error) {
			var f services.SectionFilter
			if err := queryIDs(r, map[string]**int64{"division_id": &f.DivisionID}); err != nil {
				return nil, err
			}
			return s.ListSections(r.Context(), f)
		},
		get:    s.GetSection,
		create: s.CreateSection,
		update: s.UpdateSection,
		remove: c.guard.DeleteSection,
	})
	register(api, resource[services.Position, positionRequest]{
		path:   "positions",
		list:   c.listPositions,
		get:    s.GetPosition,
		create: s.CreatePosition,
		update: s.UpdatePosition,
		remove: c.guard.DeletePosition,
	})
	register(api, resource[services.Staff, staffRequest]{
		path: "staff",
		list: func(r *http.Request) (any, error) {
			var f services.StaffFilter
			if err := queryIDs(r, map[string]**int64{"organization_id": &f.OrganizationID}); err != nil {
				return nil, err
			}
			return s.ListStaff(r.Context(), f)
		},
		get:    s.GetStaff,
		create: s.CreateStaff,
		update: s.UpdateStaff,
		remove: c.guard.DeleteStaff,
	})
	register(api, resource[services.Function, functionRequest]{
		path: "functions",
		list: func(r *http.Request) (any, error) {
			var f services.FunctionFilter
			if err := queryIDs(r, map[string]**int64{"section_id": &f.SectionID}); err != nil {
				return nil, err
			}
			return s.ListFunctions(r.Context(), f)
		},
		get:    s.GetFunction,
		create: s.CreateFunction,
		update: s.UpdateFunction,
		remove: c.guard.DeleteFunction,
	})
	register(api, resource[services.StaffPosition, staffPositionRequest]{
		path: "staff-positions",
		list: func(r *http.Request) (any, error) {
			var f services.StaffPositionFilter
			if err := queryIDs(r, map[string]**int64{"staff_id": &f.StaffID, "position_id": &f.PositionID}); err != nil {
				return nil, err
			}
			return s.ListStaffAssignments(r.Context(), f)
		},
		get:    s.GetStaffPosition,
		create: s.CreateStaffPosition,
		update: s.UpdateStaffPosition,
		remove: s.DeleteStaffPosition,
	})
	register(api, resource[services.FunctionalAssignment, functionalAssignmentRequest]{
		path: "functional-assignments",
		list: func(r *http.Request) (any, error) {
			var f services.AssignmentFilter
			if err := queryIDs(r, map[string]**int64{"position_id": &f.PositionID, "function_id": &f.FunctionID}); err != nil {
				return nil, err
			}
			return s.ListAssignedFunctions(r.Context(), f)
		},
		get:    s.GetFunctionalAssignment,
		create: s.CreateFunctionalAssignment,
		update: s.UpdateFunctionalAssignment,
		remove: s.DeleteFunctionalAssignment,
	})
	register(api, resource[services.FunctionalRelation, functionalRelationRequest]{
		path: "functional-relations",
		list: func(r *http.Request) (any, error) {
			var f services.RelationFilter
			if err := queryIDs(r, map[string]**int64{
				"position_id": &f.PositionID,
				"source_id":   &f.SourceID,
				"target_id":   &f.TargetID,
			}); err != nil {
				return nil, err
			}
			return s.ListRelationEdges(r.Context(), f)
		},
		get:    s.GetFunctionalRelation,
		create: s.CreateFunctionalRelation,
		update: s.UpdateFunctionalRelation,
		remove: s.DeleteFunctionalRelation,
	})
}

// listPositions filters by placement, or fuzzy-ranks by name and code when q is given.
func (c *OrgChartAPIController) listPositions(r *http.Request) (any, error) {
	if q := r.URL.Query().Get("q"); q != "" {
		limit := defaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return nil, badRequest("ORGCHART_INVALID_QUERY", "limit must be a positive integer")
			}
			limit = n
		}
		return c.structure.SearchPositions(r.Context(), q, limit)
	}
	var f services.PositionFilter
	if err := queryIDs(r, map[string]**int64{"division_id": &f.DivisionID, "section_id": &f.SectionID}); err != nil {
		return nil, err
	}
	return c.structure.ListPositions(r.Context(), f)
}

// resource binds the five CRUD routes of one entity to service calls.
type resource[T any, Req dto[T]] struct {
	path   string
	list   func(r *http.Request) (any, error)
	get    func(ctx context.Context, id int64) (T, error)
	create func(ctx context.Context, in T) (T, error)
	update func(ctx context.Context, id int64, in T) (T, error)
	remove func(ctx context.Context, id int64) error
}

func register[T any, Req dto[T]](api *mux.Router, res resource[T, Req]) {
	endpoint := strings.ReplaceAll(res.path, "-", "_")
	collection := "/" + res.path
	item := collection + "/{id}"

	api.HandleFunc(collection, instrument(endpoint+".list", func(w http.ResponseWriter, r *http.Request) {
		out, err := res.list(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})).Methods(http.MethodGet)

	api.HandleFunc(item, instrument(endpoint+".get", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := res.get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})).Methods(http.MethodGet)

	api.HandleFunc(collection, instrument(endpoint+".create", func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeEntity[T, Req](r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := res.create(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	})).Methods(http.MethodPost)

	api.HandleFunc(item, instrument(endpoint+".update", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in, err := decodeEntity[T, Req](r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := res.update(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})).Methods(http.MethodPut)

	api.HandleFunc(item, instrument(endpoint+".delete", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := res.remove(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})).Methods(http.MethodDelete)
}

func decodeEntity[T any, Req dto[T]](r *http.Request) (T, error) {
	var zero T
	var req Req
	if err := decodeJSON(r.Body, &req); err != nil {
		return zero, badRequest("ORGCHART_INVALID_BODY", "invalid json body")
	}
	if err := validate.Struct(req); err != nil {
		return zero, badRequest("ORGCHART_INVALID_BODY", describeValidation(err))
	}
	in, err := req.entity()
	if err != nil {
		return zero, badRequest("ORGCHART_INVALID_BODY", err.Error())
	}
	return in, nil
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// requestError is a malformed request rejected before reaching a service.
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &requestError{code: code, message: message}
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("ORGCHART_INVALID_ID", "id must be a positive integer")
	}
	return id, nil
}

// queryIDs fills each target from the optional query parameter of the same name.
func queryIDs(r *http.Request, targets map[string]**int64) error {
	q := r.URL.Query()
	for name, dst := range targets {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return badRequest("ORGCHART_INVALID_QUERY", name+" must be a positive integer")
		}
		*dst = &id
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	meta := httpapi.RequestMeta(r)

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		_ = httpapi.WriteError(w, http.StatusBadRequest, reqErr.code, reqErr.message, meta)
		return
	}

	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		meta["kind"] = string(svcErr.Kind)
		if svcErr.Entity != "" {
			meta["entity"] = string(svcErr.Entity)
		}
		envelope := &httpapi.ErrorEnvelope{Code: svcErr.Code, Message: svcErr.Message, Meta: meta}
		if len(svcErr.References) > 0 {
			envelope.References = svcErr.References
		}
		_ = httpapi.WriteJSON(w, svcErr.Status, envelope)
		return
	}

	if logger, ok := composables.TryUseLogger(r.Context()); ok {
		logger.WithError(err).Error("orgchart api: unhandled error")
	}
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "ORGCHART_INTERNAL", "internal error", meta)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
