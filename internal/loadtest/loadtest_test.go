package loadtest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/cardcognition/pkg/logger"
)

// fakeScorer answers the routes a load run touches. When dropCard is set,
// that card is left out of responses.
func fakeScorer(dropCard string, analyzed *int64) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("GET /random-commander", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"commander_name":"Edgar Markov","slug":"edgar-markov"}`)
	})
	mux.HandleFunc("GET /{slug}/suggestions/{n}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"suggestions":[{"card_name":"Sol Ring"},{"card_name":"Bloodline Keeper"},{"card_name":"Broken Card"}]}`)
	})
	mux.HandleFunc("POST /analyze/{commander}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(analyzed, 1)
		var body analyzeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		res := scoreResponse{RequestID: "r", Scores: map[string]float64{}}
		for _, n := range body.Cards {
			switch {
			case n == dropCard:
			case strings.HasPrefix(n, unknownCardPrefix):
				res.Missing = append(res.Missing, n)
			case n == "Broken Card":
				res.Scores[n] = 0
				res.Failures = append(res.Failures, failure{Name: n, Reason: "embedding_failed"})
			default:
				res.Scores[n] = 0.5
			}
		}
		_ = json.NewEncoder(w).Encode(res)
	})
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	_ = logger.Init(logger.WithWriter(io.Discard))

	Convey("Given a scoring server", t, func() {
		var analyzed int64

		Convey("When every response accounts for its cards", func() {
			srv := fakeScorer("", &analyzed)
			defer srv.Close()

			stats, err := Run(context.Background(), &Config{
				BaseURL:  srv.URL,
				Requests: 12,
				Workers:  3,
				Timeout:  time.Second,
			})

			Convey("Then the run should succeed", func() {
				So(err, ShouldBeNil)
				So(stats.Planned, ShouldEqual, 12)
				So(stats.Successful, ShouldEqual, 12)
				So(stats.Mismatched, ShouldEqual, 0)
				So(stats.Scored, ShouldEqual, 36)
				So(stats.Missing, ShouldEqual, 12)
				So(atomic.LoadInt64(&analyzed), ShouldEqual, 12)
			})
		})

		Convey("When a card goes unreported", func() {
			srv := fakeScorer("Sol Ring", &analyzed)
			defer srv.Close()

			stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Requests: 4, Workers: 2})

			Convey("Then the run should report mismatches", func() {
				So(err, ShouldWrap, ErrMismatch)
				So(stats.Mismatched, ShouldEqual, 4)
			})
		})

		Convey("When the server is unreachable", func() {
			srv := fakeScorer("", &analyzed)
			srv.Close()

			_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Requests: 1, Timeout: 100 * time.Millisecond})

			So(err, ShouldNotBeNil)
			So(atomic.LoadInt64(&analyzed), ShouldEqual, 0)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a plan", t, func() {
		p := Plan{Commander: "atraxa", Cards: []string{"Sol Ring", "Cyclonic Rift"}, Unknown: unknownCardPrefix + "x"}

		Convey("Then a complete response verifies", func() {
			res := scoreResponse{
				Scores:  map[string]float64{"Sol Ring": 0.1, "Cyclonic Rift": 0.2},
				Missing: []string{p.Unknown},
			}
			So(verify(p, res), ShouldBeNil)
		})

		Convey("Then the unknown name must be missing", func() {
			res := scoreResponse{Scores: map[string]float64{"Sol Ring": 0.1, "Cyclonic Rift": 0.2}}
			So(verify(p, res), ShouldNotBeNil)
		})

		Convey("Then a card cannot be both scored and missing", func() {
			res := scoreResponse{
				Scores:  map[string]float64{"Sol Ring": 0.1, "Cyclonic Rift": 0.2},
				Missing: []string{p.Unknown, "Sol Ring"},
			}
			So(verify(p, res), ShouldNotBeNil)
		})

		Convey("Then a failed card must score zero", func() {
			res := scoreResponse{
				Scores:  map[string]float64{"Sol Ring": 0.1, "Cyclonic Rift": 0.2},
				Missing: []string{p.Unknown},
			}
			res.Failures = append(res.Failures, failure{Name: "Sol Ring", Reason: "predict_failed"})
			So(verify(p, res), ShouldNotBeNil)
		})

		Convey("Then the request carries the unknown name last", func() {
			So(p.request(), ShouldResemble, []string{"Sol Ring", "Cyclonic Rift", p.Unknown})
		})
	})
}
