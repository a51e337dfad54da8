package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "photocatalog.yaml")
	yamlBody := `photos_dir: photos
quality: 80
delete_sources: false
source_extensions: [".jpg", ".heic"]
caption:
  provider: gemini
  model: gemini-2.5-flash
`
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0644); err != nil {
		t.Fatal(err)
	}

	tomlPath := filepath.Join(dir, "photocatalog.toml")
	tomlBody := `catalog_path = "data/catalog.json"
max_edge = 2048
extractor = "native"

[caption]
temperature = 0.5
`
	if err := os.WriteFile(tomlPath, []byte(tomlBody), 0644); err != nil {
		t.Fatal(err)
	}

	iniPath := filepath.Join(dir, "photocatalog.ini")
	if err := os.WriteFile(iniPath, []byte("x=1"), 0644); err != nil {
		t.Fatal(err)
	}

	brokenPath := filepath.Join(dir, "broken.yml")
	if err := os.WriteFile(brokenPath, []byte("quality: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	yamlWant := Default()
	yamlWant.PhotosDir = "photos"
	yamlWant.Quality = 80
	yamlWant.DeleteSources = false
	yamlWant.SourceExtensions = []string{".jpg", ".heic"}
	yamlWant.Caption.Provider = "gemini"
	yamlWant.Caption.Model = "gemini-2.5-flash"

	tomlWant := Default()
	tomlWant.CatalogPath = "data/catalog.json"
	tomlWant.MaxEdge = 2048
	tomlWant.Extractor = "native"
	tomlWant.Caption.Temperature = 0.5

	tests := []struct {
		name    string
		path    string
		want    Config
		wantErr bool
	}{
		{name: "empty path", path: "", want: Default()},
		{name: "missing file", path: filepath.Join(dir, "nope.yaml"), want: Default()},
		{name: "yaml", path: yamlPath, want: yamlWant},
		{name: "toml", path: tomlPath, want: tomlWant},
		{name: "unknown extension", path: iniPath, wantErr: true},
		{name: "broken yaml", path: brokenPath, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PHOTOCATALOG_PHOTOS_DIR":          "/srv/photos",
		"PHOTOCATALOG_SOURCE_EXTENSIONS":   ".jpg, .tif ,",
		"PHOTOCATALOG_QUALITY":             "75",
		"PHOTOCATALOG_DELETE_SOURCES":      "false",
		"PHOTOCATALOG_CAPTION_TEMPERATURE": "0.9",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.PhotosDir != "/srv/photos" {
		t.Errorf("PhotosDir = %q", cfg.PhotosDir)
	}
	if !reflect.DeepEqual(cfg.SourceExtensions, []string{".jpg", ".tif"}) {
		t.Errorf("SourceExtensions = %v", cfg.SourceExtensions)
	}
	if cfg.Quality != 75 {
		t.Errorf("Quality = %d", cfg.Quality)
	}
	if cfg.DeleteSources {
		t.Error("DeleteSources = true, want false")
	}
	if cfg.Caption.Temperature != 0.9 {
		t.Errorf("Caption.Temperature = %v", cfg.Caption.Temperature)
	}
	if cfg.CatalogPath != Default().CatalogPath {
		t.Errorf("CatalogPath changed to %q", cfg.CatalogPath)
	}
}

func TestApplyEnvInvalidNumbers(t *testing.T) {
	env := map[string]string{
		"PHOTOCATALOG_QUALITY":  "high",
		"PHOTOCATALOG_MAX_EDGE": "big",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Fatal("ApplyEnv() error = nil, want parse errors")
	}
	if cfg.Quality != 92 || cfg.MaxEdge != 0 {
		t.Errorf("invalid values applied: quality=%d max_edge=%d", cfg.Quality, cfg.MaxEdge)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "quality zero", mutate: func(c *Config) { c.Quality = 0 }, wantErr: true},
		{name: "quality too high", mutate: func(c *Config) { c.Quality = 101 }, wantErr: true},
		{name: "negative max edge", mutate: func(c *Config) { c.MaxEdge = -1 }, wantErr: true},
		{name: "unknown extractor", mutate: func(c *Config) { c.Extractor = "magic" }, wantErr: true},
		{name: "empty target", mutate: func(c *Config) { c.TargetExtension = "" }, wantErr: true},
		{name: "target without dot", mutate: func(c *Config) { c.TargetExtension = "webp" }, wantErr: true},
		{name: "source equals target", mutate: func(c *Config) { c.SourceExtensions = []string{".WEBP"} }, wantErr: true},
		{name: "no sources", mutate: func(c *Config) { c.SourceExtensions = nil }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Caption.Provider = "clippy" }, wantErr: true},
		{name: "no provider", mutate: func(c *Config) { c.Caption.Provider = "" }},
		{name: "native extractor", mutate: func(c *Config) { c.Extractor = "native" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtensionMatching(t *testing.T) {
	cfg := Default()
	tests := []struct {
		name       string
		wantSource bool
		wantTarget bool
	}{
		{name: "a.jpg", wantSource: true},
		{name: "B.JPEG", wantSource: true},
		{name: "c.Png", wantSource: true},
		{name: "d.webp", wantTarget: true},
		{name: "E.WEBP", wantTarget: true},
		{name: "f.gif"},
		{name: "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsSource(tt.name); got != tt.wantSource {
				t.Errorf("IsSource(%q) = %v, want %v", tt.name, got, tt.wantSource)
			}
			if got := cfg.IsTarget(tt.name); got != tt.wantTarget {
				t.Errorf("IsTarget(%q) = %v, want %v", tt.name, got, tt.wantTarget)
			}
		})
	}
}
