package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Env      string `yaml:"env"`       // dev | staging | prod
		LogLevel string `yaml:"log_level"` // debug | info | warn | error
		Version  string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
		IdleTimeout        string   `yaml:"idle_timeout"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
		MinConns int32  `yaml:"min_conns"`
		Migrate  bool   `yaml:"migrate"`
		// Timezone IANA para fechar los snapshots diarios. Vacío = local.
		Timezone string `yaml:"timezone"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // redis | memory
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Identity struct {
		Provider        string `yaml:"provider"` // firebase | local
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
		Local           struct {
			Secret   string `yaml:"secret"`
			Issuer   string `yaml:"issuer"`
			TokenTTL string `yaml:"token_ttl"`
		} `yaml:"local"`
	} `yaml:"identity"`

	Stats struct {
		TTL         string `yaml:"ttl"`
		DefaultDays int    `yaml:"default_days"`
	} `yaml:"stats"`

	Users struct {
		MaxPageSize int `yaml:"max_page_size"`
	} `yaml:"users"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load lee el YAML en path, aplica defaults y overrides USERCOPY_* y valida.
// path vacío arranca de una config vacía (solo defaults + env).
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Version == "" {
		c.App.Version = "dev"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.IdleTimeout == "" {
		c.Server.IdleTimeout = "60s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = 10
	}

	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "usercopy"
	}

	if c.Identity.Provider == "" {
		c.Identity.Provider = "local"
	}
	if c.Identity.Local.Issuer == "" {
		c.Identity.Local.Issuer = "usercopy"
	}
	if c.Identity.Local.TokenTTL == "" {
		c.Identity.Local.TokenTTL = "1h"
	}

	if c.Stats.TTL == "" {
		c.Stats.TTL = "60s"
	}
	if c.Stats.DefaultDays == 0 {
		c.Stats.DefaultDays = 7
	}

	if c.Users.MaxPageSize == 0 {
		c.Users.MaxPageSize = 20
	}

	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// ---- Helpers env ----

const envPrefix = "USERCOPY_"

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables USERCOPY_*.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvStr("VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_CONNS"); ok {
		c.Storage.MaxConns = int32(v)
	}
	if v, ok := getEnvInt("STORAGE_MIN_CONNS"); ok {
		c.Storage.MinConns = int32(v)
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}
	if v, ok := getEnvStr("STORAGE_TIMEZONE"); ok {
		c.Storage.Timezone = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// IDENTITY
	if v, ok := getEnvStr("IDENTITY_PROVIDER"); ok {
		c.Identity.Provider = strings.ToLower(v)
	}
	if v, ok := getEnvStr("FIREBASE_PROJECT_ID"); ok {
		c.Identity.ProjectID = v
	}
	if v, ok := getEnvStr("FIREBASE_CREDENTIALS_FILE"); ok {
		c.Identity.CredentialsFile = v
	}
	if v, ok := getEnvStr("LOCAL_TOKEN_SECRET"); ok {
		c.Identity.Local.Secret = v
	}
	if v, ok := getEnvStr("LOCAL_TOKEN_ISSUER"); ok {
		c.Identity.Local.Issuer = v
	}
	if v, ok := getEnvStr("LOCAL_TOKEN_TTL"); ok {
		c.Identity.Local.TokenTTL = v
	}

	// STATS / USERS
	if v, ok := getEnvStr("STATS_TTL"); ok {
		c.Stats.TTL = v
	}
	if v, ok := getEnvInt("STATS_DEFAULT_DAYS"); ok {
		c.Stats.DefaultDays = v
	}
	if v, ok := getEnvInt("USERS_MAX_PAGE_SIZE"); ok {
		c.Users.MaxPageSize = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// METRICS
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvStr("METRICS_PATH"); ok {
		c.Metrics.Path = v
	}
}

// Validate chequea valores enumerados, duraciones y campos requeridos por driver/provider.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown %q", c.Storage.Driver))
	}
	if c.Storage.MinConns > c.Storage.MaxConns {
		errs = append(errs, errors.New("storage.min_conns must be <= storage.max_conns"))
	}
	if c.Storage.Timezone != "" {
		if _, err := time.LoadLocation(c.Storage.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("storage.timezone: %w", err))
		}
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown %q", c.Cache.Kind))
	}

	switch c.Identity.Provider {
	case "firebase":
	case "local":
		if len(c.Identity.Local.Secret) < 32 {
			errs = append(errs, errors.New("identity.local.secret must be at least 32 bytes"))
		}
	default:
		errs = append(errs, fmt.Errorf("identity.provider: unknown %q", c.Identity.Provider))
	}

	durations := map[string]string{
		"server.read_timeout":      c.Server.ReadTimeout,
		"server.write_timeout":     c.Server.WriteTimeout,
		"server.idle_timeout":      c.Server.IdleTimeout,
		"server.shutdown_timeout":  c.Server.ShutdownTimeout,
		"identity.local.token_ttl": c.Identity.Local.TokenTTL,
		"stats.ttl":                c.Stats.TTL,
		"rate.window":              c.Rate.Window,
	}
	for name, v := range durations {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if c.Stats.DefaultDays < 2 {
		errs = append(errs, errors.New("stats.default_days must be >= 2"))
	}
	if c.Users.MaxPageSize < 1 {
		errs = append(errs, errors.New("users.max_page_size must be >= 1"))
	}
	if c.Rate.MaxRequests < 1 {
		errs = append(errs, errors.New("rate.max_requests must be >= 1"))
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}

	return errors.Join(errs...)
}

// ---- Getters tipados (ya validados) ----

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func (c *Config) ReadTimeout() time.Duration     { return mustDur(c.Server.ReadTimeout) }
func (c *Config) WriteTimeout() time.Duration    { return mustDur(c.Server.WriteTimeout) }
func (c *Config) IdleTimeout() time.Duration     { return mustDur(c.Server.IdleTimeout) }
func (c *Config) ShutdownTimeout() time.Duration { return mustDur(c.Server.ShutdownTimeout) }
func (c *Config) TokenTTL() time.Duration        { return mustDur(c.Identity.Local.TokenTTL) }
func (c *Config) StatsTTL() time.Duration        { return mustDur(c.Stats.TTL) }
func (c *Config) RateWindow() time.Duration      { return mustDur(c.Rate.Window) }

// Location devuelve la zona de storage.timezone o time.Local.
func (c *Config) Location() *time.Location {
	if c.Storage.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Storage.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsProd indica app.env=prod.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }
