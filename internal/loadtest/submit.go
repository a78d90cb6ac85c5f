package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cardcognition/pkg/logger"
)

type analyzeBody struct {
	Cards []string `json:"cards"`
}

// submitPlans posts every plan to the analyze endpoint and verifies the
// responses.
func submitPlans(ctx context.Context, cfg *Config, c *client, plans []Plan, stats *Stats) error {
	logger.Get().Info(ctx, "submitting scoring requests",
		logger.Int("requests", len(plans)),
		logger.Int("workers", cfg.Workers))

	var submitted, successful, rejected, failed, mismatched, scored, missing int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, p := range plans {
		g.Go(func() error {
			atomic.AddInt64(&submitted, 1)
			var res scoreResponse
			err := c.postJSON(gctx, "/analyze/"+escape(p.Commander), analyzeBody{Cards: p.request()}, &res)
			var se *StatusError
			switch {
			case gctx.Err() != nil:
				return gctx.Err()
			case errors.As(err, &se) && se.Code < http.StatusInternalServerError:
				atomic.AddInt64(&rejected, 1)
				logger.Get().Debug(gctx, "request rejected",
					logger.String("commander", p.Commander),
					logger.Int("status", se.Code))
				return nil
			case err != nil:
				atomic.AddInt64(&failed, 1)
				logger.Get().Warn(gctx, "request failed",
					logger.String("commander", p.Commander),
					logger.Error(err))
				return nil
			}

			atomic.AddInt64(&successful, 1)
			atomic.AddInt64(&scored, int64(len(res.Scores)))
			atomic.AddInt64(&missing, int64(len(res.Missing)))
			if err := verify(p, res); err != nil {
				atomic.AddInt64(&mismatched, 1)
				logger.Get().Error(gctx, "response mismatch",
					logger.String("commander", p.Commander),
					logger.String("request_id", res.RequestID),
					logger.Error(err))
			} else if cfg.Verbose {
				logger.Get().Info(gctx, "request scored",
					logger.String("commander", p.Commander),
					logger.Int("scored", len(res.Scores)),
					logger.Int("failures", len(res.Failures)))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.Submitted = int(submitted)
	stats.Successful = int(successful)
	stats.Rejected = int(rejected)
	stats.Failed = int(failed)
	stats.Mismatched = int(mismatched)
	stats.Scored = int(scored)
	stats.Missing = int(missing)
	return err
}

// request is the card list sent for p.
func (p Plan) request() []string {
	out := make([]string, 0, len(p.Cards)+1)
	out = append(out, p.Cards...)
	return append(out, p.Unknown)
}

// verify checks that every sent name is either scored or missing, never
// both, and that the unknown name is reported missing.
func verify(p Plan, res scoreResponse) error {
	missing := make(map[string]bool, len(res.Missing))
	for _, n := range res.Missing {
		missing[n] = true
	}
	if !missing[p.Unknown] {
		return fmt.Errorf("unknown card %q not reported missing", p.Unknown)
	}
	for _, n := range p.Cards {
		_, ok := res.Scores[n]
		switch {
		case ok && missing[n]:
			return fmt.Errorf("card %q both scored and missing", n)
		case !ok && !missing[n]:
			return fmt.Errorf("card %q neither scored nor missing", n)
		}
	}
	for _, f := range res.Failures {
		if s, ok := res.Scores[f.Name]; !ok || s != 0 {
			return fmt.Errorf("failed card %q (%s) must score 0", f.Name, f.Reason)
		}
	}
	return nil
}
