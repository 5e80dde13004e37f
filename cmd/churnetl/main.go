// Command churnetl runs the Telco churn batch pipeline: fetch the raw
// dataset into the bronze layer, clean and stage it into silver, and
// rebuild the gold analytics models. Exit code 0 means every stage
// succeeded; anything else exits 1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"churnetl/internal/config"
	"churnetl/internal/logging"
	"churnetl/internal/metrics"
	"churnetl/internal/metrics/prompush"

	// register all backends with the storage factory.
	// config specifies which to use but we build in support for all of them.
	_ "churnetl/internal/storage/all"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Getenv, os.Stderr))
}

// run is the testable body of main. getenv and stderr are injected so
// tests stay hermetic.
func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	fs := flag.NewFlagSet("churnetl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "config.yaml", "pipeline config YAML path")
	validate := fs.Bool("validate", false, "validate the configuration and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	path := *cfgPath
	if !flagPassed(fs, "config") {
		if p := getenv(config.EnvConfigPath); p != "" {
			path = p
		}
	}

	cfg, err := config.Load(path, getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintln(stderr, iss)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", path)
		return 1
	}
	if *validate {
		fmt.Fprintf(stderr, "configuration is valid: %s\n", path)
		return 0
	}

	log, sync, err := logging.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return 1
	}
	defer sync()

	flush := setupMetrics(log, cfg)
	defer flush()

	sum, err := execute(ctx, log, cfg)
	if err != nil {
		log.Errorw("pipeline aborted", "error", err.Error())
		return 1
	}
	if !sum.Succeeded() {
		return 1
	}
	return 0
}

// setupMetrics installs the configured metrics backend and returns the
// end-of-run flush.
func setupMetrics(log *zap.SugaredLogger, cfg *config.Config) func() {
	if cfg.Metrics.Backend != "pushgateway" {
		return func() {}
	}
	b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	if err != nil {
		log.Warnw("metrics backend unavailable, metrics disabled", "error", err.Error())
		return func() {}
	}
	metrics.SetBackend(b)
	log.Infow("metrics enabled",
		"backend", cfg.Metrics.Backend,
		"url", cfg.Metrics.PushgatewayURL,
		"job", cfg.Job,
	)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warnw("metrics flush failed", "error", err.Error())
		}
	}
}

func flagPassed(fs *flag.FlagSet, name string) bool {
	seen := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			seen = true
		}
	})
	return seen
}
