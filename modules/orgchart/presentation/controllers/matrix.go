package controllers

import (
	"net/http"
	"strconv"
)

func (c *OrgChartAPIController) PositionFunctions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := c.matrix.FunctionsForPosition(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *OrgChartAPIController) PositionRelations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := c.matrix.RelationsForPosition(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *OrgChartAPIController) FunctionPositions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := c.matrix.PositionsForFunction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DivisionFunctions lists functions under a division; ?recursive=true descends into child divisions.
func (c *OrgChartAPIController) DivisionFunctions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recursive := false
	if raw := r.URL.Query().Get("recursive"); raw != "" {
		recursive, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, badRequest("ORGCHART_INVALID_QUERY", "recursive must be a boolean"))
			return
		}
	}
	out, err := c.matrix.FunctionsUnderDivision(r.Context(), id, recursive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
