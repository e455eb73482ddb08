// Package config loads runtime settings from defaults, an optional .env file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"cardprice/pkg/cache"
	"cardprice/pkg/catalog"
	"cardprice/pkg/match"
	"cardprice/pkg/ocr"
	"cardprice/pkg/vision"
)

// Config holds every tunable of the server and the cardscan tool.
type Config struct {
	Port            string `mapstructure:"port"`
	JWTSecret       string `mapstructure:"jwt_secret"`
	AppPassword     string `mapstructure:"app_password"`
	AppPasswordHash string `mapstructure:"app_password_hash"`

	CacheDriver   string `mapstructure:"cache_driver"`
	CachePath     string `mapstructure:"cache_path"`
	DBDSN         string `mapstructure:"db_dsn"`
	DBAutoMigrate bool   `mapstructure:"db_auto_migrate"`

	ScryfallBaseURL string        `mapstructure:"scryfall_base_url"`
	ScryfallDelay   time.Duration `mapstructure:"scryfall_delay"`
	MaxCandidates   int           `mapstructure:"max_candidates"`

	MatchConcurrency int           `mapstructure:"match_concurrency"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ReferenceDir     string        `mapstructure:"reference_dir"`
	DebugDir         string        `mapstructure:"debug_dir"`
	UploadMaxBytes   int64         `mapstructure:"upload_max_bytes"`

	TitleBandRatio  float64 `mapstructure:"title_band_ratio"`
	UpscaleFactor   float64 `mapstructure:"upscale_factor"`
	SharpenSigma    float64 `mapstructure:"sharpen_sigma"`
	ContrastFactor  float64 `mapstructure:"contrast_factor"`
	BinaryThreshold int     `mapstructure:"binary_threshold"`
	CannyLow        float64 `mapstructure:"canny_low"`
	CannyHigh       float64 `mapstructure:"canny_high"`
	MinDimension    int     `mapstructure:"min_dimension"`
	CanvasWidth     int     `mapstructure:"canvas_width"`
	CanvasHeight    int     `mapstructure:"canvas_height"`
}

var defaults = map[string]any{
	"port":              "8081",
	"jwt_secret":        "",
	"app_password":      "",
	"app_password_hash": "",
	"cache_driver":      "sqlite",
	"cache_path":        "card_cache.db",
	"db_dsn":            "",
	"db_auto_migrate":   true,
	"scryfall_base_url": "",
	"scryfall_delay":    100 * time.Millisecond,
	"max_candidates":    40,
	"match_concurrency": 4,
	"request_timeout":   45 * time.Second,
	"reference_dir":     "public/references",
	"debug_dir":         "",
	"upload_max_bytes":  int64(10 << 20),
	"title_band_ratio":  0.25,
	"upscale_factor":    2.0,
	"sharpen_sigma":     1.0,
	"contrast_factor":   2.0,
	"binary_threshold":  128,
	"canny_low":         50.0,
	"canny_high":        150.0,
	"min_dimension":     32,
	"canvas_width":      250,
	"canvas_height":     350,
}

// Load reads configuration, using envFile when it exists. An empty envFile
// means ".env" in the working directory.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.BinaryThreshold < 0 || c.BinaryThreshold > 255 {
		errs = append(errs, fmt.Errorf("BINARY_THRESHOLD %d out of range 0-255", c.BinaryThreshold))
	}
	if c.TitleBandRatio <= 0 || c.TitleBandRatio > 1 {
		errs = append(errs, fmt.Errorf("TITLE_BAND_RATIO %v out of range (0,1]", c.TitleBandRatio))
	}
	if c.MaxCandidates < 1 {
		errs = append(errs, fmt.Errorf("MAX_CANDIDATES must be positive, got %d", c.MaxCandidates))
	}
	if c.CanvasWidth < 1 || c.CanvasHeight < 1 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive", c.CanvasWidth, c.CanvasHeight))
	}
	return errors.Join(errs...)
}

func (c *Config) Vision() vision.Config {
	return vision.Config{
		TitleBandRatio: c.TitleBandRatio,
		UpscaleFactor:  c.UpscaleFactor,
		SharpenSigma:   c.SharpenSigma,
		ContrastFactor: c.ContrastFactor,
		CannyLow:       float32(c.CannyLow),
		CannyHigh:      float32(c.CannyHigh),
		MinDimension:   c.MinDimension,
	}
}

func (c *Config) OCR() ocr.Config {
	return ocr.Config{Threshold: uint8(c.BinaryThreshold), AdaptiveFallback: true}
}

func (c *Config) Catalog() catalog.Config {
	return catalog.Config{BaseURL: c.ScryfallBaseURL, MaxCandidates: c.MaxCandidates, Timeout: c.RequestTimeout}
}

func (c *Config) Match() match.Config {
	return match.Config{
		CanvasWidth:  c.CanvasWidth,
		CanvasHeight: c.CanvasHeight,
		Concurrency:  c.MatchConcurrency,
		Timeout:      c.RequestTimeout,
		ReferenceDir: c.ReferenceDir,
	}
}

func (c *Config) Cache() cache.Config {
	return cache.Config{Driver: c.CacheDriver, Path: c.CachePath, DSN: c.DBDSN, AutoMigrate: c.DBAutoMigrate}
}
