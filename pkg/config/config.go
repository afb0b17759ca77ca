// Package config holds the viewhost configuration: the viewport documents are
// laid out against, theme and mode, package loading, caching and the HTTP
// listener.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/viewhost/pkg/content"
	"github.com/aretw0/viewhost/pkg/domain"
)

// EnvPrefix prefixes environment overrides, e.g. VIEWHOST_VIEWPORT_WIDTH.
const EnvPrefix = "VIEWHOST"

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBolt   = "bolt"
)

// Config is the viewhost-level configuration.
type Config struct {
	Viewport    Viewport        `mapstructure:"viewport" yaml:"viewport"`
	Theme       string          `mapstructure:"theme" yaml:"theme"`
	Mode        string          `mapstructure:"mode" yaml:"mode"`
	LogLevel    string          `mapstructure:"log_level" yaml:"log_level"`
	Environment map[string]any  `mapstructure:"environment" yaml:"environment,omitempty"`
	Packages    PackagesConfig  `mapstructure:"packages" yaml:"packages"`
	Cache       CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Backstack   BackstackConfig `mapstructure:"backstack" yaml:"backstack"`
	HTTP        HTTPConfig      `mapstructure:"http" yaml:"http"`
}

// Viewport describes the physical surface. Zero bounds mean a fixed size.
type Viewport struct {
	Width     float64 `mapstructure:"width" yaml:"width"`
	Height    float64 `mapstructure:"height" yaml:"height"`
	MinWidth  float64 `mapstructure:"min_width" yaml:"min_width,omitempty"`
	MaxWidth  float64 `mapstructure:"max_width" yaml:"max_width,omitempty"`
	MinHeight float64 `mapstructure:"min_height" yaml:"min_height,omitempty"`
	MaxHeight float64 `mapstructure:"max_height" yaml:"max_height,omitempty"`
	DPI       float64 `mapstructure:"dpi" yaml:"dpi"`
	Shape     string  `mapstructure:"shape" yaml:"shape,omitempty"`
	IsRound   bool    `mapstructure:"is_round" yaml:"is_round,omitempty"`
}

type PackagesConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Dir, when set, is searched before fetching.
	Dir         string `mapstructure:"dir" yaml:"dir,omitempty"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver" yaml:"driver"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url,omitempty"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix,omitempty"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
	Path     string        `mapstructure:"path" yaml:"path,omitempty"`
}

type BackstackConfig struct {
	ResponsibleForBackButton bool `mapstructure:"responsible_for_back_button" yaml:"responsible_for_back_button"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Viewport: Viewport{Width: 1024, Height: 600, DPI: 160},
		Theme:    "dark",
		Mode:     "HUB",
		LogLevel: "info",
		Packages: PackagesConfig{BaseURL: content.DefaultBaseURL, Concurrency: 8},
		Cache:    CacheConfig{Driver: CacheMemory, TTL: 24 * time.Hour},
		HTTP:     HTTPConfig{Addr: ":8080"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("viewport.width", d.Viewport.Width)
	v.SetDefault("viewport.height", d.Viewport.Height)
	v.SetDefault("viewport.min_width", 0)
	v.SetDefault("viewport.max_width", 0)
	v.SetDefault("viewport.min_height", 0)
	v.SetDefault("viewport.max_height", 0)
	v.SetDefault("viewport.dpi", d.Viewport.DPI)
	v.SetDefault("viewport.shape", "")
	v.SetDefault("viewport.is_round", false)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("packages.base_url", d.Packages.BaseURL)
	v.SetDefault("packages.dir", "")
	v.SetDefault("packages.concurrency", d.Packages.Concurrency)
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "")
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.path", "")
	v.SetDefault("backstack.responsible_for_back_button", false)
	v.SetDefault("http.addr", d.HTTP.Addr)
}

// Load reads configuration from path (optional) and the environment.
// A missing path is an error; an empty path uses defaults and the environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the values Load cannot coerce.
func (c Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("invalid viewport %vx%v", c.Viewport.Width, c.Viewport.Height)
	}
	switch c.Cache.Driver {
	case CacheNone, CacheMemory, CacheRedis, CacheBolt:
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Cache.Driver == CacheRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache driver %q requires redis_url", CacheRedis)
	}
	if c.Cache.Driver == CacheBolt && c.Cache.Path == "" {
		return fmt.Errorf("cache driver %q requires path", CacheBolt)
	}
	return nil
}

// Apply updates the configuration with a configuration change. A size without
// all four bounds pins the bounds to the size.
func (c *Config) Apply(change domain.ConfigurationChange) error {
	vp, err := change.Viewport()
	if err != nil {
		return err
	}
	if vp.Mode != "" {
		c.Mode = vp.Mode
	}
	if vp.Theme != "" {
		c.Theme = vp.Theme
	}
	if vp.DocTheme != "" {
		c.Theme = vp.DocTheme
	}
	if vp.HasSize() {
		c.Viewport.Width, c.Viewport.Height = vp.Width, vp.Height
		if vp.HasBounds() {
			c.Viewport.MinWidth, c.Viewport.MaxWidth = vp.MinWidth, vp.MaxWidth
			c.Viewport.MinHeight, c.Viewport.MaxHeight = vp.MinHeight, vp.MaxHeight
		} else {
			c.Viewport.MinWidth, c.Viewport.MaxWidth = vp.Width, vp.Width
			c.Viewport.MinHeight, c.Viewport.MaxHeight = vp.Height, vp.Height
		}
	}
	return nil
}

// Metrics derives the snapshot a new document is created against.
func (c Config) Metrics() domain.Metrics {
	vp := c.Viewport
	shape := vp.Shape
	if shape == "" {
		shape = "RECTANGLE"
		if vp.IsRound {
			shape = "ROUND"
		}
	}
	m := domain.Metrics{
		Width:  vp.Width,
		Height: vp.Height,
		DPI:    vp.DPI,
		Shape:  shape,
		Theme:  c.Theme,
		Mode:   c.Mode,
	}
	if vp.MinWidth > 0 && vp.MaxWidth > 0 && vp.MinHeight > 0 && vp.MaxHeight > 0 {
		m.MinWidth, m.MaxWidth = vp.MinWidth, vp.MaxWidth
		m.MinHeight, m.MaxHeight = vp.MinHeight, vp.MaxHeight
		m.AutoSizing = vp.MinWidth != vp.MaxWidth || vp.MinHeight != vp.MaxHeight
	}
	return m
}

// DocumentConfig is the configuration handed to each new document.
func (c Config) DocumentConfig() domain.DocumentConfig {
	return domain.DocumentConfig{Metrics: c.Metrics()}.WithEnvironment(c.Environment)
}

// Write dumps c as YAML.
func Write(w io.Writer, c Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
