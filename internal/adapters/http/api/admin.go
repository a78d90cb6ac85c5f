package api

import "net/http"

type invalidateResponse struct {
	Commander   string `json:"commander,omitempty"`
	Invalidated int    `json:"invalidated"`
}

// handleInvalidate handles POST /admin/models/{commander}/invalidate.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	name, err := s.commanderParam(r, "api.invalidate")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	n := 0
	if s.deps.InvalidateModel(r.Context(), name) {
		n = 1
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Commander: name, Invalidated: n})
}

// handleInvalidateAll handles POST /admin/models/invalidate.
func (s *Server) handleInvalidateAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: s.deps.InvalidateModels(r.Context())})
}
