package server

import (
	"encoding/json"
	"net/http"

	logsmodel "github.com/stacklog/stacklog/internal/model/logs"
)

type createUnitRequest struct {
	Name string `json:"name"`
}

// handleCreateUnit handles the unit registration request.
func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	unit, err := s.engine.CreateUnit(r.Context(), req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, unit)
}

// handleListUnits handles the unit listing request.
func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.engine.ListUnits(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	if units == nil {
		units = []*logsmodel.Unit{}
	}

	writeJSON(w, http.StatusOK, units)
}
