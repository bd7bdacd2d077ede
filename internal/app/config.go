package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/taskboard-backend/internal/data/db"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/envutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// ConfigFileEnv names the optional yaml/toml file read before env overrides.
const ConfigFileEnv = "TASKBOARD_CONFIG"

type Config struct {
	ProjectName string `yaml:"project_name" toml:"project_name"`
	Port        int    `yaml:"port" toml:"port"`
	LogMode     string `yaml:"log_mode" toml:"log_mode"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	Debug       bool   `yaml:"debug" toml:"debug"`
	APIV1Str    string `yaml:"api_v1_str" toml:"api_v1_str"`

	Database DatabaseConfig `yaml:"database" toml:"database"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Otel     OtelConfig     `yaml:"otel" toml:"otel"`

	CORSOrigins    []string `yaml:"cors_origins" toml:"cors_origins"`
	MetricsEnabled bool     `yaml:"metrics" toml:"metrics"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver" toml:"driver"`
	URL        string `yaml:"url" toml:"url"`
	Host       string `yaml:"host" toml:"host"`
	Port       int    `yaml:"port" toml:"port"`
	User       string `yaml:"user" toml:"user"`
	Password   string `yaml:"password" toml:"password"`
	Name       string `yaml:"name" toml:"name"`
	SSLMode    string `yaml:"sslmode" toml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	MaxOpen    int    `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdle    int    `yaml:"max_idle_conns" toml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Channel  string `yaml:"channel" toml:"channel"`
	// CacheTTLSeconds bounds how long a report stays cached.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds"`
}

type AuthConfig struct {
	SecretKey                string `yaml:"secret_key" toml:"secret_key"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes" toml:"access_token_expire_minutes"`
	Required                 bool   `yaml:"required" toml:"required"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled" toml:"enabled"`
	ServiceName string  `yaml:"service_name" toml:"service_name"`
	Environment string  `yaml:"environment" toml:"environment"`
	Endpoint    string  `yaml:"endpoint" toml:"endpoint"`
	Insecure    bool    `yaml:"insecure" toml:"insecure"`
	Headers     string  `yaml:"headers" toml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`
}

func DefaultConfig() Config {
	return Config{
		ProjectName: "Taskboard",
		Port:        8080,
		LogMode:     "development",
		LogLevel:    "debug",
		APIV1Str:    "/api/v1",
		Database: DatabaseConfig{
			Driver:     db.DriverPostgres,
			Host:       "localhost",
			Port:       5432,
			User:       "postgres",
			Name:       "taskboard",
			SSLMode:    "disable",
			SQLitePath: "taskboard.db",
			MaxOpen:    20,
			MaxIdle:    5,
		},
		Redis: RedisConfig{
			Channel:         "taskboard.events",
			CacheTTLSeconds: 300,
		},
		Auth: AuthConfig{
			SecretKey:                "change-me",
			AccessTokenExpireMinutes: 60 * 24 * 8,
		},
		Otel: OtelConfig{
			ServiceName: "taskboard",
			Environment: "development",
			SampleRatio: 1,
		},
		MetricsEnabled: true,
	}
}

// LoadConfig layers defaults, the optional config file and the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := DefaultConfig()
	if path, ok := envutil.Lookup(ConfigFileEnv); ok {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("config file loaded", "path", path)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if log != nil && cfg.Auth.SecretKey == DefaultConfig().Auth.SecretKey {
		log.Warn("SECRET_KEY is the built-in default; set it outside local development")
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ProjectName = envutil.String("PROJECT_NAME", cfg.ProjectName)
	cfg.Port = envutil.Int("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.LogLevel = envutil.String("LOG_LEVEL", cfg.LogLevel)
	cfg.Debug = envutil.Bool("DEBUG", cfg.Debug)
	cfg.APIV1Str = envutil.String("API_V1_STR", cfg.APIV1Str)

	d := &cfg.Database
	d.Driver = envutil.String("DATABASE_DRIVER", d.Driver)
	d.URL = envutil.String("DATABASE_URL", d.URL)
	d.Host = envutil.String("POSTGRES_SERVER", d.Host)
	d.Port = envutil.Int("POSTGRES_PORT", d.Port)
	d.User = envutil.String("POSTGRES_USER", d.User)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password)
	d.Name = envutil.String("POSTGRES_DB", d.Name)
	d.SSLMode = envutil.String("POSTGRES_SSLMODE", d.SSLMode)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)
	d.MaxOpen = envutil.Int("DATABASE_MAX_OPEN_CONNS", d.MaxOpen)
	d.MaxIdle = envutil.Int("DATABASE_MAX_IDLE_CONNS", d.MaxIdle)

	r := &cfg.Redis
	r.Addr = envutil.String("REDIS_ADDR", r.Addr)
	r.Password = envutil.String("REDIS_PASSWORD", r.Password)
	r.DB = envutil.Int("REDIS_DB", r.DB)
	r.Channel = envutil.String("REDIS_CHANNEL", r.Channel)
	r.CacheTTLSeconds = envutil.Int("CACHE_TTL_SECONDS", r.CacheTTLSeconds)

	a := &cfg.Auth
	a.SecretKey = envutil.String("SECRET_KEY", a.SecretKey)
	a.AccessTokenExpireMinutes = envutil.Int("ACCESS_TOKEN_EXPIRE_MINUTES", a.AccessTokenExpireMinutes)
	a.Required = envutil.Bool("AUTH_REQUIRED", a.Required)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Environment = envutil.String("OTEL_ENVIRONMENT", o.Environment)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	o.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", o.Headers)
	o.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", o.SampleRatio)

	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.MetricsEnabled = envutil.Bool("METRICS", cfg.MetricsEnabled)
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	switch strings.ToLower(c.Database.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	if c.Auth.AccessTokenExpireMinutes < 1 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if !strings.HasPrefix(c.APIV1Str, "/") {
		return fmt.Errorf("API_V1_STR must start with '/'")
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenExpireMinutes) * time.Minute
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c Config) DBConfig() db.Config {
	return db.Config{
		Driver:          strings.ToLower(c.Database.Driver),
		DSN:             c.Database.URL,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Name:            c.Database.Name,
		SSLMode:         c.Database.SSLMode,
		SQLitePath:      c.Database.SQLitePath,
		MaxOpenConns:    c.Database.MaxOpen,
		MaxIdleConns:    c.Database.MaxIdle,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func (c Config) OtelSettings() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: c.Otel.ServiceName,
		Environment: c.Otel.Environment,
		Endpoint:    c.Otel.Endpoint,
		Insecure:    c.Otel.Insecure,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		SampleRatio: c.Otel.SampleRatio,
	}
}
