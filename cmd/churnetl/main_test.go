// Tests for the CLI layer: flag handling, config validation gating,
// and exit codes.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

// writeConfig writes a minimal valid config pointing at dir for every
// path-like field and returns its location.
func writeConfig(t *testing.T, dir string, overrides string) string {
	t.Helper()

	raw := filepath.Join(dir, "source.csv")
	if err := os.WriteFile(raw, []byte("customerID\n0001-TEST\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	base := fmt.Sprintf(`job: cli_test
source:
  kind: file
  path: %s
layers:
  bronzeDir: %s
  silverDir: %s
  goldDir: %s
storage:
  kind: sqlite
  dsn: %s
logging:
  mode: production
`, raw, filepath.Join(dir, "bronze"), filepath.Join(dir, "silver"), filepath.Join(dir, "gold"), filepath.Join(dir, "churn.db"))

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(base+overrides), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestRun_ValidateFlag(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, t.TempDir(), "")
	var buf bytes.Buffer

	code := run(context.Background(), []string{"-config", cfgPath, "-validate"}, noEnv, &buf)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "configuration is valid") {
		t.Errorf("stderr = %q, want validity confirmation", buf.String())
	}
}

func TestRun_InvalidConfigExitsOne(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	// No DSN anywhere: yaml leaves it empty and the env fallback is empty.
	cfg := `job: cli_test
source:
  kind: file
  path: /tmp/whatever.csv
storage:
  kind: sqlite
`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var buf bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-validate"}, noEnv, &buf)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "storage.dsn") {
		t.Errorf("stderr = %q, want storage.dsn finding", buf.String())
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	code := run(context.Background(), []string{"-config", "/does/not/exist.yaml"}, noEnv, &buf)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if code := run(context.Background(), []string{"-bogus"}, noEnv, &buf); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRun_ConfigPathFromEnv(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfig(t, t.TempDir(), "")
	getenv := func(key string) string {
		if key == "CHURNETL_CONFIG" {
			return cfgPath
		}
		return ""
	}

	var buf bytes.Buffer
	if code := run(context.Background(), []string{"-validate"}, getenv, &buf); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, buf.String())
	}
}

func TestFlagPassed(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.String("config", "default", "")
	if err := fs.Parse([]string{"-config", "other"}); err != nil {
		t.Fatal(err)
	}
	if !flagPassed(fs, "config") {
		t.Error("flagPassed = false for explicitly set flag")
	}

	fs2 := flag.NewFlagSet("y", flag.ContinueOnError)
	fs2.String("config", "default", "")
	if err := fs2.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if flagPassed(fs2, "config") {
		t.Error("flagPassed = true for defaulted flag")
	}
}
