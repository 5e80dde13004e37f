package config

import (
	"fmt"
	"time"
)

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

// Issue is one validation finding, addressed by its YAML path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// Validate lints a loaded Config. It returns every finding rather than
// stopping at the first so a single run surfaces all mistakes. Callers
// should treat any SeverityError issue as fatal.
func Validate(c *Config) []Issue {
	var issues []Issue
	errf := func(path, format string, args ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, args...)})
	}
	warnf := func(path, format string, args ...any) {
		issues = append(issues, Issue{SeverityWarn, path, fmt.Sprintf(format, args...)})
	}

	switch c.Source.Kind {
	case "file":
		if c.Source.Path == "" {
			errf("source.path", "file source requires a path")
		}
	case "http":
		if c.Source.URL == "" {
			errf("source.url", "http source requires a url")
		}
	default:
		errf("source.kind", "unknown source kind %q (want file or http)", c.Source.Kind)
	}
	if c.Source.MaxRetries < 0 {
		errf("source.maxRetries", "must not be negative, got %d", c.Source.MaxRetries)
	}
	if c.Source.Timeout < 0 {
		errf("source.timeout", "must not be negative, got %s", c.Source.Timeout.Std())
	} else if c.Source.Timeout.Std() > 5*time.Minute {
		warnf("source.timeout", "unusually long timeout %s", c.Source.Timeout.Std())
	}

	switch c.Storage.Kind {
	case "postgres", "sqlite", "mssql":
	default:
		errf("storage.kind", "unknown storage kind %q (want postgres, sqlite or mssql)", c.Storage.Kind)
	}
	if c.Storage.DSN == "" {
		errf("storage.dsn", "dsn is required (yaml storage.dsn or DATABASE_DSN)")
	}

	switch c.Metrics.Backend {
	case "none":
	case "pushgateway":
		if c.Metrics.PushgatewayURL == "" {
			errf("metrics.pushgatewayUrl", "pushgateway backend requires a url")
		}
	default:
		errf("metrics.backend", "unknown metrics backend %q (want none or pushgateway)", c.Metrics.Backend)
	}

	switch c.Logging.Mode {
	case "development", "production", "prod":
	default:
		warnf("logging.mode", "unknown mode %q, falling back to development", c.Logging.Mode)
	}

	return issues
}

// HasErrors reports whether any issue is error-severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
