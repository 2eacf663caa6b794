package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"fuel-reconcile/internal/reconcile"
)

// Error is the class of configuration errors.
var Error = errs.Class("config")

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Timezone is the IANA zone that defines calendar days (default UTC).
	Timezone string `yaml:"timezone"`

	// Optional: local asset catalog used by the CLI and the assets endpoint
	// when the fleet API is unreachable. Relative paths resolve against the config file.
	AssetsFile string `yaml:"assets_file"`

	Reconcile ReconcileConfig `yaml:"reconcile"`
	FleetAPI  FleetAPIConfig  `yaml:"fleet_api"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type ReconcileConfig struct {
	// Source is the reading stream joined onto records: estimate, measurement or none.
	Source              string  `yaml:"source"`
	ShowInoperabilities bool    `yaml:"show_inoperabilities"`
	ReservedPrefix      string  `yaml:"reserved_prefix"`
	ThresholdHours      float64 `yaml:"threshold_hours"`
}

type FleetAPIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
	StaticDir      string        `yaml:"static_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Timezone: "UTC",
		Reconcile: ReconcileConfig{
			Source:         string(reconcile.SourceEstimate),
			ReservedPrefix: reconcile.DefaultReservedPrefix,
			ThresholdHours: reconcile.DefaultThresholdHours,
		},
		FleetAPI: FleetAPIConfig{
			Timeout:  30 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Port:      "8080",
			Env:       "development",
			ResultTTL: time.Hour,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads path over the defaults, but does not apply the
// environment or validate. An empty path yields the defaults.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, Error.New("parse %s: %v", path, err)
	}
	if c.AssetsFile != "" && !filepath.IsAbs(c.AssetsFile) {
		// Prefer the config file's directory, fall back to cwd.
		cand := filepath.Join(filepath.Dir(path), c.AssetsFile)
		if _, err := os.Stat(cand); err == nil {
			c.AssetsFile = cand
		}
	}
	return c, nil
}

// ApplyEnv overlays the process environment onto c.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := getenv("FLEET_API_URL"); v != "" {
		c.FleetAPI.BaseURL = v
	}
	if v := getenv("FLEET_API_TOKEN"); v != "" {
		c.FleetAPI.Token = v
	}
	if v := getenv("FLEET_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.FleetAPI.CacheTTL = d
		}
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := getenv("SHOW_INOPERABILITIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Reconcile.ShowInoperabilities = b
		}
	}
	if v := getenv("ASSETS_FILE"); v != "" {
		c.AssetsFile = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return Error.New("config is nil")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := reconcile.ParseSourceKind(c.Reconcile.Source); err != nil {
		return Error.Wrap(err)
	}
	if c.Reconcile.ThresholdHours < 0 || c.Reconcile.ThresholdHours >= reconcile.HoursPerDay {
		return Error.New("reconcile.threshold_hours must be in [0, 24), got %v", c.Reconcile.ThresholdHours)
	}
	if c.FleetAPI.Timeout < 0 || c.FleetAPI.CacheTTL < 0 || c.Server.ResultTTL < 0 {
		return Error.New("durations must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return Error.New("log.level: %v", err)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return Error.New("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, Error.New("timezone %q: %v", c.Timezone, err)
	}
	return loc, nil
}

// EngineOptions converts the reconcile section into engine options.
func (c *Config) EngineOptions() (reconcile.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return reconcile.Options{}, err
	}
	return reconcile.Options{
		Location: loc,
		Policy: reconcile.Policy{
			ShowInoperabilities: c.Reconcile.ShowInoperabilities,
			ReservedPrefix:      c.Reconcile.ReservedPrefix,
		},
		ThresholdHours: c.Reconcile.ThresholdHours,
	}, nil
}

// ReconcileOverride carries per-request overrides; nil fields keep the base value.
type ReconcileOverride struct {
	Source              *string
	ShowInoperabilities *bool
	ReservedPrefix      *string
	ThresholdHours      *float64
}

// MergeReconcile overlays the non-nil fields of override onto base.
// Used when a request or CLI flag refines the configured policy.
func MergeReconcile(base ReconcileConfig, override ReconcileOverride) ReconcileConfig {
	out := base
	if override.Source != nil {
		out.Source = *override.Source
	}
	if override.ShowInoperabilities != nil {
		out.ShowInoperabilities = *override.ShowInoperabilities
	}
	if override.ReservedPrefix != nil && *override.ReservedPrefix != "" {
		out.ReservedPrefix = *override.ReservedPrefix
	}
	if override.ThresholdHours != nil && *override.ThresholdHours > 0 {
		out.ThresholdHours = *override.ThresholdHours
	}
	return out
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
