package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Paths
	assertEqual(t, "Paths.Suite", "tabcheck.suite.yaml", cfg.Paths.Suite)
	assertEqual(t, "Paths.Results", "results/", cfg.Paths.Results)

	// Defaults
	assertEqual(t, "Defaults.Format", "text", cfg.Defaults.Format)
	assertEqualInt(t, "Defaults.Workers", 1, cfg.Defaults.Workers)
	assertBoolPtr(t, "Defaults.Color", true, cfg.Defaults.Color)
	assertBoolPtr(t, "Defaults.Verbose", false, cfg.Defaults.Verbose)

	// Data
	assertEqual(t, "Data.Driver", "sqlite3", cfg.Data.Driver)
	assertEqual(t, "Data.Label", "", cfg.Data.Label)
	if cfg.Data.Cat != nil {
		t.Error("Data.Cat should be nil by default")
	}
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
paths:
  suite: "checks/regression.yaml"
  results: "out/"
defaults:
  format: junit
  workers: 4
  color: false
  verbose: true
data:
  path: data/train.csv.gz
  driver: postgres
  dsn: "host=localhost dbname=shop"
  query: "select * from sales"
  label: target
  index: id
  date: day
  cat: [color, region]
  model: models/linear.yaml
`)

	cfg, err := LoadWithEnv(dir, noEnv)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Paths.Suite", "checks/regression.yaml", cfg.Paths.Suite)
	assertEqual(t, "Paths.Results", "out/", cfg.Paths.Results)
	assertEqual(t, "Defaults.Format", "junit", cfg.Defaults.Format)
	assertEqualInt(t, "Defaults.Workers", 4, cfg.Defaults.Workers)
	assertBoolPtr(t, "Defaults.Color", false, cfg.Defaults.Color)
	assertBoolPtr(t, "Defaults.Verbose", true, cfg.Defaults.Verbose)
	assertEqual(t, "Data.Path", "data/train.csv.gz", cfg.Data.Path)
	assertEqual(t, "Data.Driver", "postgres", cfg.Data.Driver)
	assertEqual(t, "Data.DSN", "host=localhost dbname=shop", cfg.Data.DSN)
	assertEqual(t, "Data.Query", "select * from sales", cfg.Data.Query)
	assertEqual(t, "Data.Label", "target", cfg.Data.Label)
	assertEqual(t, "Data.Index", "id", cfg.Data.Index)
	assertEqual(t, "Data.Date", "day", cfg.Data.Date)
	assertEqual(t, "Data.Model", "models/linear.yaml", cfg.Data.Model)
	if len(cfg.Data.Cat) != 2 || cfg.Data.Cat[0] != "color" || cfg.Data.Cat[1] != "region" {
		t.Errorf("Data.Cat = %v, want [color region]", cfg.Data.Cat)
	}
	assertEqual(t, "Resolve", filepath.Join(dir, "data/train.csv.gz"), cfg.Resolve(cfg.Data.Path))
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
data:
  label: price
`)

	cfg, err := LoadWithEnv(dir, noEnv)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Overridden
	assertEqual(t, "Data.Label", "price", cfg.Data.Label)

	// Defaults preserved
	assertEqual(t, "Data.Driver", "sqlite3", cfg.Data.Driver)
	assertEqual(t, "Paths.Suite", "tabcheck.suite.yaml", cfg.Paths.Suite)
	assertEqualInt(t, "Defaults.Workers", 1, cfg.Defaults.Workers)
	assertBoolPtr(t, "Defaults.Color", true, cfg.Defaults.Color)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadWithEnv(dir, noEnv)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	defaults := New()
	assertEqual(t, "Defaults.Format", defaults.Defaults.Format, cfg.Defaults.Format)
	assertEqualInt(t, "Defaults.Workers", defaults.Defaults.Workers, cfg.Defaults.Workers)
	assertEqual(t, "Paths.Suite", defaults.Paths.Suite, cfg.Paths.Suite)

	abs, _ := filepath.Abs(dir)
	assertEqual(t, "Dir", abs, cfg.Dir)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
defaults:
  format: [not valid yaml
    this is broken
`)

	_, err := LoadWithEnv(dir, noEnv)
	if err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, `
defaults:
  format: markdown
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithEnv(child, noEnv)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.Format", "markdown", cfg.Defaults.Format)
	// Other defaults still populated
	assertEqual(t, "Data.Driver", "sqlite3", cfg.Data.Driver)
	// Relative paths resolve against the file, not the start directory.
	abs, _ := filepath.Abs(root)
	assertEqual(t, "Dir", abs, cfg.Dir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
defaults:
  format: json
  workers: 2
data:
  label: target
`)

	cfg, err := LoadWithEnv(dir, envMap(map[string]string{
		"TABCHECK_FORMAT":  "html",
		"TABCHECK_WORKERS": "6",
		"TABCHECK_CAT":     "a, b,,c",
		"TABCHECK_COLOR":   "false",
		"TABCHECK_LABEL":   "",
	}))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.Format", "html", cfg.Defaults.Format)
	assertEqualInt(t, "Defaults.Workers", 6, cfg.Defaults.Workers)
	assertBoolPtr(t, "Defaults.Color", false, cfg.Defaults.Color)
	// Empty variables do not clear file values.
	assertEqual(t, "Data.Label", "target", cfg.Data.Label)
	if len(cfg.Data.Cat) != 3 || cfg.Data.Cat[2] != "c" {
		t.Errorf("Data.Cat = %v, want [a b c]", cfg.Data.Cat)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "data:\n  driver: postgres\n")
	writeFile(t, dir, ".env", "TABCHECK_DSN=\"host=db dbname=shop\"\nTABCHECK_QUERY=\"select 1\"\n")

	cfg, err := LoadWithEnv(dir, envMap(map[string]string{"TABCHECK_QUERY": "select 2"}))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Data.DSN", "host=db dbname=shop", cfg.Data.DSN)
	// The process environment wins over .env.
	assertEqual(t, "Data.Query", "select 2", cfg.Data.Query)
}

func TestLookupEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "POSTGRES_USER=ana\nPOSTGRES_DB=shop\n")

	cfg, err := LoadWithEnv(dir, envMap(map[string]string{"POSTGRES_DB": "live"}))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	v, ok := cfg.LookupEnv("POSTGRES_USER")
	if !ok || v != "ana" {
		t.Errorf("LookupEnv(POSTGRES_USER) = %q, %v, want ana from .env", v, ok)
	}
	v, _ = cfg.LookupEnv("POSTGRES_DB")
	assertEqual(t, "POSTGRES_DB", "live", v)
	if _, ok := cfg.LookupEnv("POSTGRES_PASSWORD"); ok {
		t.Error("POSTGRES_PASSWORD should be unset")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := map[string]string{
		"TABCHECK_WORKERS": "many",
		"TABCHECK_VERBOSE": "sometimes",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := LoadWithEnv(t.TempDir(), envMap(map[string]string{key: value}))
			if err == nil {
				t.Fatalf("Load() should reject %s=%s", key, value)
			}
		})
	}
}

func TestBoolPointerFields(t *testing.T) {
	t.Run("defaults preserved when not set in YAML", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, `
defaults:
  format: json
`)
		cfg, err := LoadWithEnv(dir, noEnv)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Defaults.Color", true, cfg.Defaults.Color)
	})

	t.Run("explicitly false", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, `
defaults:
  color: false
  verbose: false
`)
		cfg, err := LoadWithEnv(dir, noEnv)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Defaults.Color", false, cfg.Defaults.Color)
		assertBoolPtr(t, "Defaults.Verbose", false, cfg.Defaults.Verbose)
	})
}

func TestResolve(t *testing.T) {
	cfg := &ProjectConfig{Dir: "/proj"}
	assertEqual(t, "relative", filepath.Join("/proj", "suite.yaml"), cfg.Resolve("suite.yaml"))
	assertEqual(t, "absolute", "/abs/suite.yaml", cfg.Resolve("/abs/suite.yaml"))
	assertEqual(t, "empty", "", cfg.Resolve(""))
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want *%v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}
