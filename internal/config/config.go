// Package config loads the docfill CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/render"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "DOCFILL_CONFIG"

// Registry drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config is the root configuration document.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Schema   SchemaConfig   `yaml:"schema"`
	Records  RecordsConfig  `yaml:"records"`
	Output   OutputConfig   `yaml:"output"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Layout   LayoutConfig   `yaml:"layout"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RegistryConfig selects the template store.
type RegistryConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	// DocumentRoot resolves relative template document paths.
	DocumentRoot string `yaml:"document_root"`
}

// SchemaConfig locates the field schema: a schema document, or an OpenAPI
// document plus the component describing one record.
type SchemaConfig struct {
	Path      string `yaml:"path"`
	OpenAPI   string `yaml:"openapi"`
	Component string `yaml:"component"`
}

// RecordsConfig configures the default record source.
type RecordsConfig struct {
	// Database is a SQLite file queried for records.
	Database  string `yaml:"database"`
	Query     string `yaml:"query"`
	KeyColumn string `yaml:"key_column"`
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Backend string `yaml:"backend"`
	// Workers bounds concurrent cell-template jobs.
	Workers int `yaml:"workers"`
}

// FontsConfig configures fallback font resolution.
type FontsConfig struct {
	Bundled  string   `yaml:"bundled"`
	System   []string `yaml:"system"`
	Fallback string   `yaml:"fallback"`
}

// LayoutConfig holds default page geometry. Margins are millimetres.
type LayoutConfig struct {
	Mode         string  `yaml:"mode"`
	Page         string  `yaml:"page"`
	ItemsPerPage int     `yaml:"items_per_page"`
	MarginXMM    float64 `yaml:"margin_x_mm"`
	MarginYMM    float64 `yaml:"margin_y_mm"`
}

// RenderConfig tunes the renderer.
type RenderConfig struct {
	FieldErrors string `yaml:"field_errors"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	Verbose     bool     `yaml:"verbose"`
	OutputPaths []string `yaml:"output_paths"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads path, or the file named by DOCFILL_CONFIG when path is empty.
// With neither set the defaults are returned.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvPath)
	}
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes a YAML document, applies defaults and validates the result.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Registry.Driver == "" {
		c.Registry.Driver = DriverFile
	}
	if c.Registry.Path == "" {
		if c.Registry.Driver == DriverSQLite {
			c.Registry.Path = "templates.db"
		} else {
			c.Registry.Path = "template_config.json"
		}
	}
	if c.Schema.Path == "" && c.Schema.OpenAPI == "" {
		c.Schema.Path = "fields.json"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.Backend == "" {
		c.Output.Backend = "pdf"
	}
	if c.Output.Workers <= 0 {
		c.Output.Workers = 4
	}
	if c.Fonts.Fallback == "" {
		c.Fonts.Fallback = render.CoreFamily
	}
	if c.Layout.Mode == "" {
		c.Layout.Mode = string(model.ModeStandard)
	}
	if c.Layout.Page == "" {
		c.Layout.Page = "a4"
	}
	if c.Layout.ItemsPerPage <= 0 {
		c.Layout.ItemsPerPage = model.DefaultItemsPerPage
	}
	if c.Layout.MarginXMM == 0 {
		c.Layout.MarginXMM = model.DefaultMarginMM
	}
	if c.Layout.MarginYMM == 0 {
		c.Layout.MarginYMM = model.DefaultMarginMM
	}
	if c.Render.FieldErrors == "" {
		c.Render.FieldErrors = "mark"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "console"
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stderr"}
	}
}

// resolvePaths makes relative file paths relative to the config directory.
func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Registry.Path, &c.Registry.DocumentRoot, &c.Schema.Path, &c.Records.Database, &c.Output.Dir, &c.Fonts.Bundled} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	if c.Schema.OpenAPI != "" && !strings.Contains(c.Schema.OpenAPI, "://") && !filepath.IsAbs(c.Schema.OpenAPI) {
		c.Schema.OpenAPI = filepath.Join(base, c.Schema.OpenAPI)
	}
}

// Validate reports invalid settings.
func (c Config) Validate() error {
	var errs []error
	switch c.Registry.Driver {
	case DriverFile, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("registry.driver %q must be %q or %q", c.Registry.Driver, DriverFile, DriverSQLite))
	}
	if c.Schema.OpenAPI != "" && strings.TrimSpace(c.Schema.Component) == "" {
		errs = append(errs, errors.New("schema.component is required with schema.openapi"))
	}
	if _, err := c.PageSize(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LayoutConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParseFieldErrorPolicy(c.Render.FieldErrors); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PageSize resolves layout.page.
func (c Config) PageSize() (model.Size, error) {
	switch strings.ToLower(c.Layout.Page) {
	case "a4":
		return model.PageA4, nil
	case "letter":
		return model.PageLetter, nil
	default:
		return model.Size{}, fmt.Errorf("layout.page %q must be a4 or letter", c.Layout.Page)
	}
}

// LayoutConfig builds the default page layout.
func (c Config) LayoutConfig() (model.LayoutConfig, error) {
	page, err := c.PageSize()
	if err != nil {
		return model.LayoutConfig{}, err
	}
	var cfg model.LayoutConfig
	switch model.LayoutMode(c.Layout.Mode) {
	case model.ModeStandard:
		cfg = model.StandardLayout(page)
	case model.ModeGrid:
		cfg = model.GridLayout(page, c.Layout.ItemsPerPage, c.Layout.MarginXMM, c.Layout.MarginYMM)
	default:
		return model.LayoutConfig{}, fmt.Errorf("layout.mode %q must be standard or grid", c.Layout.Mode)
	}
	if err := cfg.Validate(); err != nil {
		return model.LayoutConfig{}, err
	}
	return cfg, nil
}
