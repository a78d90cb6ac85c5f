package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cardcognition/internal/adapters/http/api"
	"github.com/okian/cardcognition/internal/adapters/repository"
	service "github.com/okian/cardcognition/internal/app"
	"github.com/okian/cardcognition/internal/domain/model"
	"github.com/okian/cardcognition/internal/domain/registry"
	"github.com/okian/cardcognition/internal/domain/types"
)

type mockDeps struct {
	lastScore   service.ScoreRequest
	scoreErr    error
	lastOffset  int
	lastLimit   int
	suggestions []types.Suggestion
	invalidated []string
}

func (m *mockDeps) Score(_ context.Context, req service.ScoreRequest) (types.ScoringResult, error) {
	m.lastScore = req
	if m.scoreErr != nil {
		return types.ScoringResult{}, m.scoreErr
	}
	scores := map[string]float64{}
	for _, n := range req.Cards {
		if n != "NoSuchCard" {
			scores[n] = 0.42
		}
	}
	return types.ScoringResult{
		RequestID: "r1",
		Commander: req.Commander,
		Scores:    scores,
		Missing:   []string{"NoSuchCard"},
		Failures:  []types.Failure{},
	}, nil
}

func (m *mockDeps) Card(_ context.Context, name string) (types.CardView, error) {
	if strings.EqualFold(name, "sol ring") {
		return types.CardView{Name: "Sol Ring"}, nil
	}
	return types.CardView{}, fmt.Errorf("%w: %s", service.ErrCardNotFound, name)
}

func (m *mockDeps) CommanderInfo(_ context.Context, name string) (types.CommanderInfo, error) {
	if name != "atraxa-praetors-voice" {
		return types.CommanderInfo{}, service.ErrCommanderNotFound
	}
	return types.CommanderInfo{Name: name, RelatedCards: 3}, nil
}

func (m *mockDeps) Suggestions(_ context.Context, _ string, offset, limit int) ([]types.Suggestion, error) {
	m.lastOffset, m.lastLimit = offset, limit
	return m.suggestions, nil
}

func (m *mockDeps) Reductions(_ context.Context, _ string, limit int) ([]types.Suggestion, error) {
	m.lastLimit = limit
	return m.suggestions, nil
}

func (m *mockDeps) DBInfo(context.Context) (types.DBInfo, error) {
	return types.DBInfo{Cards: 10}, nil
}

func (m *mockDeps) RandomCommander(context.Context) (model.Commander, error) {
	return model.Commander{Slug: "edgar-markov", CardName: "Edgar Markov"}, nil
}

func (m *mockDeps) InvalidateModel(_ context.Context, name string) bool {
	m.invalidated = append(m.invalidated, name)
	return true
}

func (m *mockDeps) InvalidateModels(context.Context) int { return 4 }

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var jsonHeader = map[string]string{"Content-Type": "application/json"}

func decode(rec *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(rec.Body.Bytes(), v), ShouldBeNil)
}

func TestAnalyze(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{}
		h := api.NewServer(deps).Router()

		Convey("When a JSON array of names is posted", func() {
			rec := do(h, http.MethodPost, "/analyze/Atraxa,%20Praetors'%20Voice", `["Sol Ring","Cyclonic Rift","NoSuchCard"]`, jsonHeader)

			Convey("Then the scoring result should be returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var res types.ScoringResult
				decode(rec, &res)
				So(res.Scores, ShouldHaveLength, 2)
				So(res.Missing, ShouldResemble, []string{"NoSuchCard"})
				So(deps.lastScore.Commander, ShouldEqual, "Atraxa, Praetors' Voice")
				So(deps.lastScore.Progress, ShouldNotBeNil)
			})
		})

		Convey("When an object with a cards field is posted", func() {
			rec := do(h, http.MethodPost, "/analyze/atraxa", `{"cards":["Sol Ring"]}`, map[string]string{"Content-Type": "application/json; charset=utf-8"})

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.lastScore.Cards, ShouldResemble, []string{"Sol Ring"})
		})

		Convey("When the content type is not JSON", func() {
			rec := do(h, http.MethodPost, "/analyze/atraxa", `["Sol Ring"]`, map[string]string{"Content-Type": "text/plain"})

			So(rec.Code, ShouldEqual, http.StatusUnsupportedMediaType)
		})

		Convey("When the body is malformed", func() {
			rec := do(h, http.MethodPost, "/analyze/atraxa", `{"cards":`, jsonHeader)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the commander name is too long", func() {
			rec := do(h, http.MethodPost, "/analyze/"+strings.Repeat("a", 32), `[]`, jsonHeader)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			var body map[string]string
			decode(rec, &body)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("When scoring fails with request-fatal errors", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{fmt.Errorf("%w: x", service.ErrCommanderNotFound), http.StatusNotFound, "commander_not_found"},
				{fmt.Errorf("%w: x", registry.ErrModelNotFound), http.StatusNotFound, "model_not_found"},
				{registry.ErrSchemaMismatch, http.StatusConflict, "schema_mismatch"},
				{service.ErrTooManyCards, http.StatusBadRequest, "bad_request"},
				{errors.New("db down"), http.StatusInternalServerError, "internal_error"},
			}
			for _, c := range cases {
				deps.scoreErr = c.err
				rec := do(h, http.MethodPost, "/analyze/atraxa", `["Sol Ring"]`, jsonHeader)
				So(rec.Code, ShouldEqual, c.status)
				var body map[string]string
				decode(rec, &body)
				So(body["code"], ShouldEqual, c.code)
			}
		})
	})
}

func TestCatalogRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{suggestions: []types.Suggestion{{CardView: types.CardView{Name: "Sol Ring"}, SynergyScore: 0.5}}}
		h := api.NewServer(deps).Router()

		Convey("When a card is fetched case-insensitively", func() {
			rec := do(h, http.MethodGet, "/cards/sol%20ring", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = do(h, http.MethodGet, "/cards/nothing", "", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When commander info is requested", func() {
			rec := do(h, http.MethodGet, "/atraxa-praetors-voice/info", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			rec = do(h, http.MethodGet, "/nobody/info", "", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When suggestions are requested above the page size", func() {
			rec := do(h, http.MethodGet, "/atraxa/suggestions/500", "", nil)

			Convey("Then the count should be capped", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, repository.MaxPageSize)
			})
		})

		Convey("When a suggestion range is requested", func() {
			rec := do(h, http.MethodGet, "/atraxa/suggestions/range/-5/400", "", nil)

			Convey("Then the window should be clamped", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastOffset, ShouldEqual, 0)
				So(deps.lastLimit, ShouldEqual, 100)
			})

			rec = do(h, http.MethodGet, "/atraxa/suggestions/range/a/b", "", nil)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a commander has no suggestions or reductions", func() {
			deps.suggestions = nil
			So(do(h, http.MethodGet, "/atraxa/suggestions/10", "", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodGet, "/atraxa/reductions/10", "", nil).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When reductions use a non-integer count", func() {
			So(do(h, http.MethodGet, "/atraxa/reductions/ten", "", nil).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When dbinfo and a random commander are requested", func() {
			So(do(h, http.MethodGet, "/dbinfo", "", nil).Code, ShouldEqual, http.StatusOK)

			rec := do(h, http.MethodGet, "/random-commander", "", nil)
			var body map[string]string
			decode(rec, &body)
			So(body["commander_name"], ShouldEqual, "Edgar Markov")
		})
	})
}

func TestAdminAndHealth(t *testing.T) {
	Convey("Given an API server with a failing readiness check", t, func() {
		deps := &mockDeps{}
		ready := errors.New("db down")
		h := api.NewServer(deps,
			api.WithReadiness(func(context.Context) error { return ready }),
			api.WithAllowedOrigins([]string{"http://localhost:3000"}),
		).Router()

		Convey("When models are invalidated", func() {
			rec := do(h, http.MethodPost, "/admin/models/atraxa/invalidate", "", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(deps.invalidated, ShouldResemble, []string{"atraxa"})

			rec = do(h, http.MethodPost, "/admin/models/invalidate", "", nil)
			var body map[string]int
			decode(rec, &body)
			So(body["invalidated"], ShouldEqual, 4)
		})

		Convey("When health is checked", func() {
			So(do(h, http.MethodGet, "/healthz", "", nil).Code, ShouldEqual, http.StatusServiceUnavailable)
			ready = nil
			So(do(h, http.MethodGet, "/healthz", "", nil).Code, ShouldEqual, http.StatusOK)
		})

		Convey("When metrics are scraped", func() {
			rec := do(h, http.MethodGet, "/healthz", "", map[string]string{"Accept": "text/plain"})
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/metrics", "", nil).Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the API docs are requested", func() {
			So(do(h, http.MethodGet, "/openapi.yaml", "", nil).Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/api-docs/index.html", "", nil).Code, ShouldEqual, http.StatusOK)
		})

		Convey("When an allowed origin sends a preflight", func() {
			rec := do(h, http.MethodOptions, "/analyze/atraxa", "", map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": http.MethodPost,
			})
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:3000")
		})
	})
}
