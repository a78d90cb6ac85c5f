// Command taxonomy refits the type-line vocabularies from the legal catalog
// and writes them where the server loads them from.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/cardcognition/internal/adapters/repository"
	app "github.com/okian/cardcognition/internal/app"
	"github.com/okian/cardcognition/internal/config"
	"github.com/okian/cardcognition/internal/domain/taxonomy"
	"github.com/okian/cardcognition/pkg/logger"
)

func main() {
	var (
		out     = flag.String("out", "", "Output path (default: taxonomy_path from config)")
		version = flag.String("version", "", "Version label stored in the taxonomy")
		dryRun  = flag.Bool("dry-run", false, "Fit and report without writing")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *out, *version, *dryRun); err != nil {
		logger.Get().Error(ctx, "taxonomy fit failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, out, version string, dryRun bool) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if out == "" {
		out = cfg.TaxonomyPath
	}
	log := logger.Named("taxonomy")

	store, err := repository.NewPostgres(ctx, cfg.DatabaseDSN, repository.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var opts []taxonomy.Option
	if version != "" {
		opts = append(opts, taxonomy.WithVersion(version))
	}
	tax, err := app.FitTaxonomy(ctx, store, opts...)
	if err != nil {
		return err
	}
	log.Info(ctx, "taxonomy fitted",
		logger.Int("card_types", tax.CardTypeWidth()),
		logger.Int("sub_types", tax.SubTypeWidth()),
		logger.Int("skipped", tax.Skipped()),
		logger.String("version", tax.Version()),
		logger.String("fingerprint", tax.Fingerprint()),
	)
	if dryRun {
		return nil
	}

	if prev, err := app.LoadTaxonomy(out); err == nil && prev.Fingerprint() != tax.Fingerprint() {
		log.Warn(ctx, "taxonomy changed; stored models trained on the old layout will be rejected",
			logger.String("previous", prev.Fingerprint()),
		)
	}
	if err := app.SaveTaxonomy(out, tax); err != nil {
		return err
	}
	log.Info(ctx, "taxonomy written", logger.String("path", out))
	return nil
}
