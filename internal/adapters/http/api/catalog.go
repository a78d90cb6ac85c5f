package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/cardcognition/internal/adapters/repository"
	"github.com/okian/cardcognition/internal/domain/types"
)

type suggestionsResponse struct {
	Suggestions []types.Suggestion `json:"suggestions"`
	Count       int                `json:"count,omitempty"`
	Start       *int               `json:"start,omitempty"`
	End         *int               `json:"end,omitempty"`
}

type reductionsResponse struct {
	Reductions []types.Suggestion `json:"reductions"`
	Count      int                `json:"count"`
}

type randomCommanderResponse struct {
	CommanderName string `json:"commander_name"`
	Slug          string `json:"slug"`
}

// handleCard handles GET /cards/{name}.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.deps.Card(r.Context(), pathParam(r, "name"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// handleCommanderInfo handles GET /{commander}/info.
func (s *Server) handleCommanderInfo(w http.ResponseWriter, r *http.Request) {
	name, err := s.commanderParam(r, "api.commander_info")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	info, err := s.deps.CommanderInfo(r.Context(), name)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSuggestions handles GET /{commander}/suggestions/{count}.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggestions"
	name, err := s.commanderParam(r, op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	count, err := intParam(r, "count", op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	count = min(count, repository.MaxPageSize)

	out, err := s.deps.Suggestions(r.Context(), name, 0, count)
	if err == nil && len(out) == 0 {
		err = NewKind(op, ErrNoResults)
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out, Count: count})
}

// handleSuggestionRange handles GET /{commander}/suggestions/range/{start}/{end}.
// The window [start, end) is clamped to at most one page.
func (s *Server) handleSuggestionRange(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggestion_range"
	name, err := s.commanderParam(r, op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	start, err := intParam(r, "start", op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	end, err := intParam(r, "end", op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	start = max(start, 0)
	end = min(end, start+repository.MaxPageSize)
	if end <= start {
		s.writeFailure(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("empty range %d..%d", start, end)))
		return
	}

	out, err := s.deps.Suggestions(r.Context(), name, start, end-start)
	if err == nil && len(out) == 0 {
		err = NewKind(op, ErrNoResults)
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out, Start: &start, End: &end})
}

// handleReductions handles GET /{commander}/reductions/{count}.
func (s *Server) handleReductions(w http.ResponseWriter, r *http.Request) {
	const op = "api.reductions"
	name, err := s.commanderParam(r, op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	count, err := intParam(r, "count", op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	count = min(count, repository.MaxPageSize)

	out, err := s.deps.Reductions(r.Context(), name, count)
	if err == nil && len(out) == 0 {
		err = NewKind(op, ErrNoResults)
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reductionsResponse{Reductions: out, Count: count})
}

// handleDBInfo handles GET /dbinfo.
func (s *Server) handleDBInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.deps.DBInfo(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleRandomCommander handles GET /random-commander.
func (s *Server) handleRandomCommander(w http.ResponseWriter, r *http.Request) {
	cmd, err := s.deps.RandomCommander(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, randomCommanderResponse{CommanderName: cmd.CardName, Slug: cmd.Slug})
}

func intParam(r *http.Request, key, op string) (int, error) {
	v, err := strconv.Atoi(pathParam(r, key))
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("%s must be an integer", key))
	}
	return v, nil
}
