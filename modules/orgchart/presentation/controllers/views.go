package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgmatrix/modules/orgchart/domain/orgtree"
	"github.com/iota-uz/orgmatrix/modules/orgchart/services"
)

// includeFunctions reports whether ?include= lists "functions".
func includeFunctions(r *http.Request) bool {
	for _, part := range strings.Split(r.URL.Query().Get("include"), ",") {
		if strings.EqualFold(strings.TrimSpace(part), "functions") {
			return true
		}
	}
	return false
}

func (c *OrgChartAPIController) project(w http.ResponseWriter, r *http.Request, kind orgtree.ViewKind, scope services.Scope) {
	root, err := c.projection.Project(r.Context(), kind, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (c *OrgChartAPIController) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	scope := services.Scope{IncludeFunctions: includeFunctions(r)}
	if err := queryIDs(r, map[string]**int64{"organization_id": &scope.OrganizationID}); err != nil {
		writeError(w, r, err)
		return
	}
	c.project(w, r, orgtree.ViewHierarchy, scope)
}

func (c *OrgChartAPIController) GetBusinessStructure(w http.ResponseWriter, r *http.Request) {
	c.project(w, r, orgtree.ViewBusiness, services.Scope{IncludeFunctions: includeFunctions(r)})
}

func (c *OrgChartAPIController) GetLegalEntities(w http.ResponseWriter, r *http.Request) {
	c.catalogView(w, r, orgtree.ViewLegalEntity)
}

func (c *OrgChartAPIController) GetLocations(w http.ResponseWriter, r *http.Request) {
	c.catalogView(w, r, orgtree.ViewLocation)
}

// catalogView renders every catalog entry, or the one named by {id}.
func (c *OrgChartAPIController) catalogView(w http.ResponseWriter, r *http.Request, kind orgtree.ViewKind) {
	var scope services.Scope
	if raw, ok := mux.Vars(r)["id"]; ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, badRequest("ORGCHART_INVALID_ID", "id must be a positive integer"))
			return
		}
		scope.EntityID = id
	}
	c.project(w, r, kind, scope)
}
