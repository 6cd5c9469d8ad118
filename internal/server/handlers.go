package server

import (
	"net/http"
)

// handleHealthz handles the health check request.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
