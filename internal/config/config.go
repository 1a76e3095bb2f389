// Package config loads service configuration from a YAML file, a .env file
// and NUTRILABEL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// NUTRILABEL_SERVER_PORT overrides server.port.
const EnvPrefix = "NUTRILABEL"

// Predictor model sources.
const (
	SourceFile   = "file"
	SourceRemote = "remote"
)

// Config is the full service configuration.
type Config struct {
	App        AppConfig                  `mapstructure:"app"`
	Server     ServerConfig               `mapstructure:"server"`
	Upload     UploadConfig               `mapstructure:"upload"`
	OCR        OCRConfig                  `mapstructure:"ocr"`
	Predictors map[string]PredictorConfig `mapstructure:"predictors"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// UploadConfig controls where label images are stored.
type UploadConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
	// Retain keeps uploaded files on disk after the response is sent.
	Retain bool `mapstructure:"retain"`
}

// OCRConfig tunes the Tesseract engine and the result cache.
type OCRConfig struct {
	Language       string        `mapstructure:"language"`
	TessdataPrefix string        `mapstructure:"tessdata_prefix"`
	PageSegMode    int           `mapstructure:"page_seg_mode"`
	MinWidth       int           `mapstructure:"min_width"`
	MaxPixels      int           `mapstructure:"max_pixels"`
	DetectPolarity bool          `mapstructure:"detect_polarity"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheCleanup   time.Duration `mapstructure:"cache_cleanup"`
}

// PredictorConfig selects where a disease predictor gets its classifier.
type PredictorConfig struct {
	Source  string        `mapstructure:"source"`
	Path    string        `mapstructure:"path"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "nutrilabel")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("upload.retain", true)

	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.tessdata_prefix", "")
	v.SetDefault("ocr.page_seg_mode", 3)
	v.SetDefault("ocr.min_width", 1000)
	v.SetDefault("ocr.max_pixels", 25_000_000)
	v.SetDefault("ocr.detect_polarity", true)
	v.SetDefault("ocr.cache_ttl", 10*time.Minute)
	v.SetDefault("ocr.cache_cleanup", 30*time.Minute)
}

// Load reads configuration from configPath. An empty path, or a path that
// does not exist, yields defaults plus environment overrides. A .env file in
// the working directory is loaded into the process environment first when
// present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config failed: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	for name, p := range cfg.Predictors {
		if p.Source == "" {
			p.Source = SourceFile
		}
		if p.Timeout <= 0 {
			p.Timeout = 10 * time.Second
		}
		cfg.Predictors[name] = p
	}

	return &cfg, nil
}

// Validate checks value ranges and required fields.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir is required")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if c.OCR.Language == "" {
		return fmt.Errorf("ocr.language is required")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("ocr.page_seg_mode must be between 0 and 13")
	}
	if c.OCR.MinWidth < 0 {
		return fmt.Errorf("ocr.min_width must not be negative")
	}
	if c.OCR.MaxPixels < 0 {
		return fmt.Errorf("ocr.max_pixels must not be negative")
	}
	for name, p := range c.Predictors {
		switch p.Source {
		case SourceFile:
			if p.Path == "" {
				return fmt.Errorf("predictors.%s.path is required for source %q", name, p.Source)
			}
		case SourceRemote:
			if p.URL == "" {
				return fmt.Errorf("predictors.%s.url is required for source %q", name, p.Source)
			}
		default:
			return fmt.Errorf("predictors.%s.source must be %q or %q", name, SourceFile, SourceRemote)
		}
	}
	return nil
}

// IsDevelopment reports whether app.env selects development behaviour
// (console logs, gin debug mode).
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "dev"
}
