package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración del servicio, cargada de YAML + env.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns int `yaml:"max_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Auth struct {
		// AllowSessionGrant habilita el grant_type edx_session.
		// Deshabilitado por defecto: con el flag en false el grant responde
		// invalid_grant, como si no existiera.
		AllowSessionGrant bool `yaml:"allow_session_grant"`
		Session           struct {
			CookieName string `yaml:"cookie_name"`
			TTL        string `yaml:"ttl"`
		} `yaml:"session"`
	} `yaml:"auth"`

	Rate struct {
		// Enabled activa rate limiting por IP en /login y /oauth2/access_token.
		Enabled bool   `yaml:"enabled"`
		Max     int    `yaml:"max"`
		Window  string `yaml:"window"`
	} `yaml:"rate"`
}

// Load lee la configuración desde un archivo YAML y aplica defaults y
// overrides de entorno.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LJ_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LJ_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("LJ_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("LJ_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("LJ_CACHE_KIND"); v != "" {
		c.Cache.Kind = v
	}
	if v := os.Getenv("LJ_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("LJ_ISSUER"); v != "" {
		c.JWT.Issuer = v
	}
	if v := os.Getenv("LJ_ALLOW_SESSION_GRANT"); v != "" {
		c.Auth.AllowSessionGrant = parseBool(v)
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "http://localhost:8080"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "lj_session"
	}
	if c.Rate.Max <= 0 {
		c.Rate.Max = 60
	}
}

// AccessTTL retorna el TTL de access/ID tokens (default 30m).
func (c *Config) AccessTTL() time.Duration {
	return durationOr(c.JWT.AccessTTL, 30*time.Minute)
}

// RefreshTTL retorna el TTL de refresh tokens (default 30 días).
func (c *Config) RefreshTTL() time.Duration {
	return durationOr(c.JWT.RefreshTTL, 30*24*time.Hour)
}

// SessionTTL retorna el TTL de sesiones (default 24h).
func (c *Config) SessionTTL() time.Duration {
	return durationOr(c.Auth.Session.TTL, 24*time.Hour)
}

// CacheDefaultTTL retorna el TTL default del cache memory (default 1h).
func (c *Config) CacheDefaultTTL() time.Duration {
	return durationOr(c.Cache.Memory.DefaultTTL, time.Hour)
}

// RateWindow retorna la ventana del rate limiter (default 1m).
func (c *Config) RateWindow() time.Duration {
	return durationOr(c.Rate.Window, time.Minute)
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
