// Command geostage runs one staging run: it reads a directive, filters
// each tier's granules against the AOI, and copies the survivors into
// the local output tree.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geostage-labs/geostage-go/internal/directive"
	"github.com/geostage-labs/geostage-go/internal/domain"
	"github.com/geostage-labs/geostage-go/internal/fsx"
	"github.com/geostage-labs/geostage-go/internal/orchestrator"
	"github.com/geostage-labs/geostage-go/internal/platform/objectstore"
	"github.com/geostage-labs/geostage-go/internal/platform/postgres"
	repopg "github.com/geostage-labs/geostage-go/internal/repo/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	directivePath := flag.String("directive", "", "path to the YAML run directive (required)")
	local := flag.Bool("local", false, "read sources from the local filesystem instead of the object store")
	workers := flag.Int("workers", 0, "reference-tier transfer workers (0 = default)")
	flag.Parse()

	if *directivePath == "" {
		logger.Error("missing -directive flag")
		os.Exit(2)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	raw, err := os.ReadFile(*directivePath)
	if err != nil {
		logger.Error("read directive", "path", *directivePath, "error", err)
		os.Exit(2)
	}
	d, err := directive.Parse(raw)
	if err != nil {
		logger.Error("invalid directive", "path", *directivePath, "error", err)
		os.Exit(2)
	}
	logger.Info("directive loaded", "directive", d.String())

	source, err := buildSource(ctx, logger, d, *local)
	if err != nil {
		logger.Error("source filesystem init failed", "error", err)
		os.Exit(1)
	}

	cfg := orchestrator.Config{
		Directive:  d,
		Source:     source,
		OutputBase: d.OutputBase,
		Workers:    *workers,
	}

	// The ledger is optional: runs record themselves only when a
	// database URL is configured.
	if os.Getenv("GEOSTAGE_DATABASE_URL") != "" {
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid database config", "error", err)
			os.Exit(2)
		}
		db, err := postgres.Open(ctx, dbCfg)
		if err != nil {
			logger.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		cfg.Ledger = repopg.NewLedgerStore(db)
	}

	orch, err := orchestrator.New(logger, cfg)
	if err != nil {
		logger.Error("orchestrator init failed", "error", err)
		os.Exit(2)
	}

	start := time.Now()
	if err := orch.Run(ctx); err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Error("run rejected", "error", err)
			os.Exit(2)
		}
		logger.Error("run failed", "error", err, "elapsed", time.Since(start).String())
		os.Exit(1)
	}
	logger.Info("run complete", "elapsed", time.Since(start).String())
}

// buildSource picks the source filesystem once, at process start. Every
// later read goes through the same fsx.FS regardless of backend.
func buildSource(ctx context.Context, logger *slog.Logger, d directive.Directive, local bool) (fsx.FS, error) {
	if local || !d.Remote() {
		logger.Info("using local source filesystem")
		return fsx.NewLocal(), nil
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	client, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		return nil, err
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := objectstore.CheckBucket(checkCtx, client, storeCfg); err != nil {
		return nil, err
	}
	logger.Info("using object store source", "endpoint", storeCfg.Endpoint, "bucket", storeCfg.Bucket)
	return fsx.NewObjectStore(client, storeCfg.Bucket)
}
