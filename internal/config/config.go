// Package config holds the run configuration for photocatalog.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHOTOCATALOG_"

var (
	extractors = []string{"auto", "exiftool", "native"}
	providers  = []string{"ollama", "openai", "gemini"}
)

// Caption configures the optional header captioning step.
type Caption struct {
	Provider    string  `yaml:"provider" toml:"provider"`
	Model       string  `yaml:"model" toml:"model"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
}

// Config is passed explicitly to every component that needs it.
type Config struct {
	PhotosDir        string   `yaml:"photos_dir" toml:"photos_dir"`
	CatalogPath      string   `yaml:"catalog_path" toml:"catalog_path"`
	ReportPath       string   `yaml:"report_path" toml:"report_path"`
	SourceExtensions []string `yaml:"source_extensions" toml:"source_extensions"`
	TargetExtension  string   `yaml:"target_extension" toml:"target_extension"`
	Quality          int      `yaml:"quality" toml:"quality"`
	MaxEdge          int      `yaml:"max_edge" toml:"max_edge"`
	DeleteSources    bool     `yaml:"delete_sources" toml:"delete_sources"`
	Extractor        string   `yaml:"extractor" toml:"extractor"`
	ExiftoolPath     string   `yaml:"exiftool_path" toml:"exiftool_path"`
	Caption          Caption  `yaml:"caption" toml:"caption"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		PhotosDir:        "public/images/photos",
		CatalogPath:      "public/data/photography.json",
		ReportPath:       ".github/photography-pr-body.md",
		SourceExtensions: []string{".jpg", ".jpeg", ".png"},
		TargetExtension:  ".webp",
		Quality:          92,
		DeleteSources:    true,
		Extractor:        "auto",
		Caption: Caption{
			Provider:    "ollama",
			Temperature: 0.2,
		},
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// or a missing file yields the defaults. The format is chosen by extension.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	return cfg, nil
}

// ApplyEnv overrides fields from PHOTOCATALOG_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("PHOTOS_DIR", &c.PhotosDir)
	str("CATALOG_PATH", &c.CatalogPath)
	str("REPORT_PATH", &c.ReportPath)
	str("TARGET_EXTENSION", &c.TargetExtension)
	str("EXTRACTOR", &c.Extractor)
	str("EXIFTOOL_PATH", &c.ExiftoolPath)
	str("CAPTION_PROVIDER", &c.Caption.Provider)
	str("CAPTION_MODEL", &c.Caption.Model)

	if v, ok := lookup(EnvPrefix + "SOURCE_EXTENSIONS"); ok {
		c.SourceExtensions = splitList(v)
	}

	var errs []error
	if v, ok := lookup(EnvPrefix + "QUALITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sQUALITY: %w", EnvPrefix, err))
		} else {
			c.Quality = n
		}
	}
	if v, ok := lookup(EnvPrefix + "MAX_EDGE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_EDGE: %w", EnvPrefix, err))
		} else {
			c.MaxEdge = n
		}
	}
	if v, ok := lookup(EnvPrefix + "DELETE_SOURCES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDELETE_SOURCES: %w", EnvPrefix, err))
		} else {
			c.DeleteSources = b
		}
	}
	if v, ok := lookup(EnvPrefix + "CAPTION_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCAPTION_TEMPERATURE: %w", EnvPrefix, err))
		} else {
			c.Caption.Temperature = f
		}
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.PhotosDir == "" {
		errs = append(errs, errors.New("photos_dir is required"))
	}
	if c.CatalogPath == "" {
		errs = append(errs, errors.New("catalog_path is required"))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality))
	}
	if c.MaxEdge < 0 {
		errs = append(errs, fmt.Errorf("max_edge must not be negative, got %d", c.MaxEdge))
	}
	if !strings.HasPrefix(c.TargetExtension, ".") || len(c.TargetExtension) < 2 {
		errs = append(errs, fmt.Errorf("target_extension must look like .webp, got %q", c.TargetExtension))
	}
	if len(c.SourceExtensions) == 0 {
		errs = append(errs, errors.New("source_extensions must not be empty"))
	}
	for _, ext := range c.SourceExtensions {
		if strings.EqualFold(ext, c.TargetExtension) {
			errs = append(errs, fmt.Errorf("source extension %q equals the target extension", ext))
		}
	}
	if !slices.Contains(extractors, c.Extractor) {
		errs = append(errs, fmt.Errorf("unknown extractor %q (want one of %s)", c.Extractor, strings.Join(extractors, ", ")))
	}
	if c.Caption.Provider != "" && !slices.Contains(providers, c.Caption.Provider) {
		errs = append(errs, fmt.Errorf("unknown caption provider %q", c.Caption.Provider))
	}
	return errors.Join(errs...)
}

// IsSource reports whether name has one of the source extensions,
// compared case-insensitively.
func (c Config) IsSource(name string) bool {
	ext := filepath.Ext(name)
	for _, want := range c.SourceExtensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// IsTarget reports whether name already has the target extension.
func (c Config) IsTarget(name string) bool {
	return strings.EqualFold(filepath.Ext(name), c.TargetExtension)
}
