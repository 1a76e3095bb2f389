package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Upload.Dir != "uploads" {
		t.Errorf("Upload.Dir = %q, want uploads", cfg.Upload.Dir)
	}
	if !cfg.Upload.Retain {
		t.Error("Upload.Retain should default to true")
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Errorf("Upload.MaxBytes = %d, want %d", cfg.Upload.MaxBytes, 10<<20)
	}
	if cfg.OCR.Language != "eng" {
		t.Errorf("OCR.Language = %q, want eng", cfg.OCR.Language)
	}
	if !cfg.OCR.DetectPolarity {
		t.Error("OCR.DetectPolarity should default to true")
	}
	if cfg.OCR.CacheTTL != 10*time.Minute {
		t.Errorf("OCR.CacheTTL = %v, want 10m", cfg.OCR.CacheTTL)
	}
	if cfg.OCR.MaxPixels != 25_000_000 {
		t.Errorf("OCR.MaxPixels = %d, want 25000000", cfg.OCR.MaxPixels)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Name != "nutrilabel" {
		t.Errorf("App.Name = %q, want nutrilabel", cfg.App.Name)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
app:
  env: development
  log_level: debug
server:
  port: "9090"
  shutdown_timeout: 3s
upload:
  dir: /tmp/labels
  retain: false
ocr:
  cache_ttl: 0s
predictors:
  diabetes:
    path: models/diabetes.json
  heart-disease:
    source: remote
    url: http://models.local/heart
    timeout: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Upload.Retain {
		t.Error("Upload.Retain should be false")
	}
	if cfg.OCR.CacheTTL != 0 {
		t.Errorf("OCR.CacheTTL = %v, want 0", cfg.OCR.CacheTTL)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should be true")
	}

	d := cfg.Predictors["diabetes"]
	if d.Source != SourceFile || d.Path != "models/diabetes.json" {
		t.Errorf("diabetes predictor = %+v", d)
	}
	if d.Timeout != 10*time.Second {
		t.Errorf("diabetes timeout default = %v, want 10s", d.Timeout)
	}

	h := cfg.Predictors["heart-disease"]
	if h.Source != SourceRemote || h.URL != "http://models.local/heart" || h.Timeout != 2*time.Second {
		t.Errorf("heart-disease predictor = %+v", h)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NUTRILABEL_SERVER_PORT", "7070")
	t.Setenv("NUTRILABEL_OCR_LANGUAGE", "deu")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("Server.Port = %q, want 7070", cfg.Server.Port)
	}
	if cfg.OCR.Language != "deu" {
		t.Errorf("OCR.Language = %q, want deu", cfg.OCR.Language)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load should fail for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty upload dir", func(c *Config) { c.Upload.Dir = "" }},
		{"zero max bytes", func(c *Config) { c.Upload.MaxBytes = 0 }},
		{"empty language", func(c *Config) { c.OCR.Language = "" }},
		{"bad psm", func(c *Config) { c.OCR.PageSegMode = 14 }},
		{"negative min width", func(c *Config) { c.OCR.MinWidth = -1 }},
		{"negative max pixels", func(c *Config) { c.OCR.MaxPixels = -1 }},
		{"file without path", func(c *Config) {
			c.Predictors = map[string]PredictorConfig{"diabetes": {Source: SourceFile}}
		}},
		{"remote without url", func(c *Config) {
			c.Predictors = map[string]PredictorConfig{"diabetes": {Source: SourceRemote}}
		}},
		{"unknown source", func(c *Config) {
			c.Predictors = map[string]PredictorConfig{"diabetes": {Source: "s3", Path: "x"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}
