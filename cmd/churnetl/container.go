package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"churnetl/internal/config"
	"churnetl/internal/datasource"
	"churnetl/internal/datasource/file"
	"churnetl/internal/datasource/httpds"
	"churnetl/internal/ingest"
	"churnetl/internal/materialize"
	"churnetl/internal/modeling"
	"churnetl/internal/parser/csvfile"
	"churnetl/internal/pipeline"
	"churnetl/internal/storage"
	"churnetl/internal/transform"
)

// rawFileName is the standardized name the raw dataset gets inside the
// bronze directory, whatever the source called it.
const rawFileName = "telco_customer_churn.csv"

// newRepositoryFn is a test seam; production keeps the factory.
var newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return storage.New(ctx, cfg)
}

// buildProvider maps the source config onto a datasource.Provider that
// lands the raw file in the bronze directory.
func buildProvider(cfg *config.Config) (datasource.Provider, error) {
	dest := filepath.Join(cfg.Layers.BronzeDir, rawFileName)
	switch cfg.Source.Kind {
	case "file":
		return file.NewProvider(cfg.Source.Path, dest), nil
	case "http":
		client := httpds.NewClient(httpds.Config{
			Timeout:    cfg.Source.Timeout.Std(),
			MaxRetries: cfg.Source.MaxRetries,
		})
		return httpds.NewProvider(client, cfg.Source.URL, dest), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", cfg.Source.Kind)
	}
}

// execute wires the stages and drives one full run. The staging schema
// is ensured up front so a misconfigured store fails before any stage
// starts.
func execute(ctx context.Context, log *zap.SugaredLogger, cfg *config.Config) (*pipeline.Summary, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	repo, err := newRepositoryFn(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	defer repo.Close()

	if err := materialize.EnsureStaging(ctx, repo); err != nil {
		return nil, err
	}

	ingestor := ingest.New(log, provider, cfg.Job)
	transformer := transform.New(log)
	materializer := materialize.New(log, repo, cfg.Layers.SilverDir, cfg.Job)
	builder := modeling.New(log, repo, cfg.Layers.GoldDir, cfg.Job)

	var rawPath string
	runner := pipeline.NewRunner(log, cfg.Job,
		pipeline.Stage{Name: "ingest", State: pipeline.StateIngesting, Run: func(ctx context.Context) error {
			res, err := ingestor.Run(ctx)
			if err != nil {
				return err
			}
			rawPath = res.Path
			return nil
		}},
		pipeline.Stage{Name: "transform", State: pipeline.StateTransforming, Run: func(ctx context.Context) error {
			tbl, err := csvfile.ReadFile(rawPath, csvfile.Options{TrimSpace: true})
			if err != nil {
				return err
			}
			records, rep, err := transformer.Run(tbl)
			if err != nil {
				return err
			}
			_, err = materializer.Run(ctx, records, rep)
			return err
		}},
		pipeline.Stage{Name: "model", State: pipeline.StateModeling, Run: func(ctx context.Context) error {
			_, err := builder.Run(ctx)
			return err
		}},
	)
	return runner.Run(ctx), nil
}
