// Package projectconfig provides the ProjectConfig struct and loader for
// .tabcheck.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".tabcheck.yaml"

// EnvPrefix prefixes the environment variables that override file values.
const EnvPrefix = "TABCHECK_"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultSuiteFile  = "tabcheck.suite.yaml"
	DefaultResultsDir = "results/"

	DefaultFormat  = "text"
	DefaultWorkers = 1

	DefaultDriver = "sqlite3"
)

// maxWalkUp bounds how many parent directories Load searches.
const maxWalkUp = 10

// PathsConfig holds file and directory locations.
type PathsConfig struct {
	Suite   string `yaml:"suite,omitempty"`
	Results string `yaml:"results,omitempty"`
}

// DefaultsConfig holds default run parameters.
type DefaultsConfig struct {
	Format  string `yaml:"format,omitempty"`
	Workers int    `yaml:"workers,omitempty"`
	Color   *bool  `yaml:"color,omitempty"`
	Verbose *bool  `yaml:"verbose,omitempty"`
}

// DataConfig describes the dataset a run loads when no flags override it.
type DataConfig struct {
	Path   string   `yaml:"path,omitempty"`
	Driver string   `yaml:"driver,omitempty"`
	DSN    string   `yaml:"dsn,omitempty"`
	Query  string   `yaml:"query,omitempty"`
	Label  string   `yaml:"label,omitempty"`
	Index  string   `yaml:"index,omitempty"`
	Date   string   `yaml:"date,omitempty"`
	Cat    []string `yaml:"cat,omitempty"`
	Model  string   `yaml:"model,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .tabcheck.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Data     DataConfig     `yaml:"data,omitempty"`

	// Dir is the directory holding the loaded file, or the start directory
	// when none was found. Relative paths in the file resolve against it.
	Dir string `yaml:"-"`

	env func(string) (string, bool)
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Suite:   DefaultSuiteFile,
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			Format:  DefaultFormat,
			Workers: DefaultWorkers,
			Color:   boolPtr(true),
			Verbose: boolPtr(false),
		},
		Data: DataConfig{
			Driver: DefaultDriver,
		},
	}
}

// Load finds .tabcheck.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills in missing fields with defaults and then applies
// TABCHECK_* overrides from the environment and from a .env file next to
// the config. If no config file is found, defaults are used with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	return LoadWithEnv(startDir, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(startDir string, lookup func(string) (string, bool)) (*ProjectConfig, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", startDir, err)
	}

	cfg := &ProjectConfig{}
	data, dir, err := findConfigFile(absDir)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
		dir = absDir
	default:
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	cfg.Dir = dir

	if err := mergo.Merge(cfg, New()); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	dotenv, err := readDotEnv(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}
	cfg.env = env
	return cfg, nil
}

// LookupEnv reads a variable from the environment the config was loaded
// with, falling back to the .env file next to the config.
func (c *ProjectConfig) LookupEnv(key string) (string, bool) {
	if c.env == nil {
		return os.LookupEnv(key)
	}
	return c.env(key)
}

// Resolve returns p relative to the config directory unless it is absolute.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// findConfigFile walks up from dir looking for .tabcheck.yaml and returns its
// contents and directory. Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, string, error) {
	for range maxWalkUp {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}

// applyEnv overlays TABCHECK_* variables onto cfg.
func applyEnv(cfg *ProjectConfig, env func(string) (string, bool)) error {
	strs := map[string]*string{
		"SUITE":   &cfg.Paths.Suite,
		"RESULTS": &cfg.Paths.Results,
		"FORMAT":  &cfg.Defaults.Format,
		"DATA":    &cfg.Data.Path,
		"DRIVER":  &cfg.Data.Driver,
		"DSN":     &cfg.Data.DSN,
		"QUERY":   &cfg.Data.Query,
		"LABEL":   &cfg.Data.Label,
		"INDEX":   &cfg.Data.Index,
		"DATE":    &cfg.Data.Date,
		"MODEL":   &cfg.Data.Model,
	}
	for key, dst := range strs {
		if v, ok := env(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := env(EnvPrefix + "CAT"); ok && v != "" {
		cfg.Data.Cat = nil
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Data.Cat = append(cfg.Data.Cat, c)
			}
		}
	}
	if v, ok := env(EnvPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%sWORKERS must be a positive integer, got %q", EnvPrefix, v)
		}
		cfg.Defaults.Workers = n
	}
	for key, dst := range map[string]**bool{"COLOR": &cfg.Defaults.Color, "VERBOSE": &cfg.Defaults.Verbose} {
		if v, ok := env(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s must be a boolean, got %q", EnvPrefix, key, v)
			}
			*dst = boolPtr(b)
		}
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
