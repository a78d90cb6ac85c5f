package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/cardcognition/internal/domain/taxonomy"
	"github.com/okian/cardcognition/pkg/logger"
)

// FitTaxonomy fits a taxonomy over the store's legal catalog.
func FitTaxonomy(ctx context.Context, store CardStore, opts ...taxonomy.Option) (*taxonomy.Taxonomy, error) {
	cards, err := store.AllLegalCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load legal catalog: %w", err)
	}
	return taxonomy.Fit(cards, opts...), nil
}

// LoadTaxonomy reads a persisted taxonomy and verifies its fingerprint.
func LoadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return taxonomy.Load(f)
}

// SaveTaxonomy writes tax to path atomically.
func SaveTaxonomy(path string, tax *taxonomy.Taxonomy) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create taxonomy dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".taxonomy-*")
	if err != nil {
		return fmt.Errorf("create temp taxonomy: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tax.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp taxonomy: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadOrFitTaxonomy loads the taxonomy at path, or fits one from the store
// and persists it there when the file does not exist. A file that exists
// but fails verification is an error.
func LoadOrFitTaxonomy(ctx context.Context, path string, store CardStore, log logger.Logger) (*taxonomy.Taxonomy, error) {
	tax, err := LoadTaxonomy(path)
	switch {
	case err == nil:
		log.Info(ctx, "taxonomy loaded",
			logger.String("path", path),
			logger.String("fingerprint", tax.Fingerprint()),
		)
		return tax, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}

	tax, err = FitTaxonomy(ctx, store)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "taxonomy fitted",
		logger.Int("card_types", tax.CardTypeWidth()),
		logger.Int("sub_types", tax.SubTypeWidth()),
		logger.Int("skipped", tax.Skipped()),
		logger.String("fingerprint", tax.Fingerprint()),
	)
	if err := SaveTaxonomy(path, tax); err != nil {
		log.Warn(ctx, "taxonomy not persisted", logger.String("path", path), logger.Error(err))
	}
	return tax, nil
}
