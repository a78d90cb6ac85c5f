package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/cardcognition/pkg/logger"
)

// ErrMismatch is returned when any response failed verification.
var ErrMismatch = errors.New("responses failed verification")

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	cfg.applyDefaults()
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting scoring load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("cardsPerRequest", cfg.CardsPerRequest),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	plans, err := buildPlans(ctx, cfg, c, stats)
	if err != nil {
		return stats, fmt.Errorf("planning failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := savePlans(ctx, cfg.OutputFile, plans); err != nil {
			logger.Get().Warn(ctx, "failed to save plans", logger.Error(err))
		}
	}

	if err := submitPlans(ctx, cfg, c, plans, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatched, stats.Successful)
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRequests
	}
	if cfg.CardsPerRequest <= 0 {
		cfg.CardsPerRequest = DefaultCardsPerRequest
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}

// checkServiceHealth verifies the service is running and ready.
func checkServiceHealth(ctx context.Context, c *client) error {
	logger.Get().Info(ctx, "checking service health")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("planned", stats.Planned),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("cardsScored", stats.Scored),
		logger.Int("cardsMissing", stats.Missing),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
