package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config groups the application settings read from the environment
type Config struct {
	App     AppConfig
	DB      DBConfig
	Session SessionConfig
	HTTP    HTTPConfig
	AMQP    AMQPConfig
	Seed    SeedConfig
}

type AppConfig struct {
	Env      string // development, staging, production
	LogLevel string
}

// IsProduction reports whether APP_ENV is production
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// DBConfig holds PostgreSQL settings. DatabaseURL wins over the discrete fields.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// ConnectionString returns DATABASE_URL when set, otherwise the DSN built from the parts
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type SessionConfig struct {
	Secret            string
	TTL               time.Duration
	Issuer            string
	CookieSecure      bool
	PrincipalCacheTTL time.Duration
}

type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

// AMQPConfig enables the RabbitMQ catalog publisher when URL is set
type AMQPConfig struct {
	URL   string
	Queue string
}

// SeedConfig optionally creates an administrator account at seed time
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
}

const devSecret = "development-only-session-secret"

// Load reads configs/.env when present, then the process environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Session: SessionConfig{
			Secret:            v.GetString("JWT_SECRET"),
			TTL:               time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
			Issuer:            "foodcatalog",
			CookieSecure:      v.GetBool("COOKIE_SECURE"),
			PrincipalCacheTTL: time.Duration(v.GetInt("PRINCIPAL_CACHE_TTL_SECONDS")) * time.Second,
		},
		HTTP: HTTPConfig{
			Port:        v.GetString("PORT"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		AMQP: AMQPConfig{
			URL:   v.GetString("AMQP_URL"),
			Queue: v.GetString("AMQP_QUEUE"),
		},
		Seed: SeedConfig{
			AdminUsername: v.GetString("ADMIN_USERNAME"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
		},
	}

	if cfg.Session.Secret == "" {
		if cfg.App.IsProduction() {
			return nil, errors.New("JWT_SECRET environment variable is required in production mode")
		}
		cfg.Session.Secret = devSecret
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "foodcatalog")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("AMQP_QUEUE", "catalog.events")
	v.SetDefault("PRINCIPAL_CACHE_TTL_SECONDS", 300)
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
