// Package config loads and validates titledb configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
	"github.com/JakeFAU/ctr-titledb/pkg/xmldb"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	JSON    JSONConfig    `mapstructure:"json"`
	XML     XMLConfig     `mapstructure:"xml"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Export  ExportConfig  `mapstructure:"export"`
}

// JSONConfig points at the region-partitioned feed.
type JSONConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// XMLConfig points at the single-document catalog.
type XMLConfig struct {
	URL string `mapstructure:"url"`
}

// HTTPConfig configures the shared transport.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ExportConfig controls where snapshots are written.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TITLEDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("json.base_url", jsondb.DefaultBaseURL)
	v.SetDefault("xml.url", xmldb.DefaultURL)
	v.SetDefault("http.user_agent", "ctr-titledb/1.0 (+https://github.com/JakeFAU/ctr-titledb)")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_body_bytes", 64*1024*1024)
	v.SetDefault("logging.development", false)
	v.SetDefault("export.dir", "data/titledb")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if err := validateURL("json.base_url", c.JSON.BaseURL); err != nil {
		return err
	}
	if err := validateURL("xml.url", c.XML.URL); err != nil {
		return err
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must be >= 0")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}
