package loadtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/cardcognition/pkg/logger"
)

// ErrNoPlans is returned when no commander yielded a usable request.
var ErrNoPlans = errors.New("no scoring requests could be planned")

// buildPlans picks a random commander per request and pulls its top
// suggestions as the card list, adding one name the catalog cannot hold.
func buildPlans(ctx context.Context, cfg *Config, c *client, stats *Stats) ([]Plan, error) {
	logger.Get().Info(ctx, "planning scoring requests", logger.Int("requests", cfg.Requests))

	var (
		mu    sync.Mutex
		plans = make([]Plan, 0, cfg.Requests)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Requests; i++ {
		g.Go(func() error {
			p, err := planOne(gctx, cfg, c)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Get().Debug(gctx, "skipping plan", logger.Int("index", i), logger.Error(err))
				return nil
			}
			mu.Lock()
			plans = append(plans, p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrNoPlans
	}
	stats.Planned = len(plans)
	return plans, nil
}

func planOne(ctx context.Context, cfg *Config, c *client) (Plan, error) {
	var cmd randomCommander
	if err := c.getJSON(ctx, "/random-commander", &cmd); err != nil {
		return Plan{}, fmt.Errorf("random commander: %w", err)
	}
	var sug suggestions
	path := fmt.Sprintf("/%s/suggestions/%d", escape(cmd.Slug), cfg.CardsPerRequest)
	if err := c.getJSON(ctx, path, &sug); err != nil {
		return Plan{}, fmt.Errorf("suggestions for %s: %w", cmd.Slug, err)
	}
	p := Plan{
		Commander: cmd.Slug,
		Cards:     make([]string, 0, len(sug.Suggestions)),
		Unknown:   unknownCardPrefix + uuid.NewString(),
	}
	for _, s := range sug.Suggestions {
		p.Cards = append(p.Cards, s.Name)
	}
	return p, nil
}

// savePlans writes the plans to a JSON file.
func savePlans(ctx context.Context, filename string, plans []Plan) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plans: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write plans: %w", err)
	}
	logger.Get().Info(ctx, "plans saved to file", logger.String("filename", filename))
	return nil
}
