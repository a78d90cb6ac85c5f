package api

import (
	"context"
	"io"
	"mime"
	"net/http"

	json "github.com/goccy/go-json"

	service "github.com/okian/cardcognition/internal/app"
	"github.com/okian/cardcognition/internal/domain/types"
	"github.com/okian/cardcognition/pkg/logger"
)

// handleAnalyze handles POST /analyze/{commander}. The body is a JSON array
// of card names, or an object with a "cards" array.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"

	commander, err := s.commanderParam(r, op)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		s.writeFailure(w, r, NewKind(op, ErrUnsupportedMedia))
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	names, err := decodeCardNames(data)
	if err != nil {
		s.writeFailure(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := s.deps.Score(r.Context(), service.ScoreRequest{
		Commander: commander,
		Cards:     names,
		Progress:  s.progressLogger(r.Context(), commander),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeCardNames(data []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		return names, nil
	}
	var wrapped struct {
		Cards []string `json:"cards"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Cards, nil
}

func (s *Server) progressLogger(ctx context.Context, commander string) service.ProgressFunc {
	return func(p types.Progress) {
		s.logger.Debug(ctx, "scoring progress",
			logger.String("commander", commander),
			logger.Int("done", p.Done),
			logger.Int("total", p.Total),
			logger.Float64("remaining_seconds", p.Remaining),
		)
	}
}
