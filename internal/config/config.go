package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	PollerBackendLocal = "local"
	PollerBackendAsynq = "asynq"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Suno      SunoConfig
	Poller    PollerConfig
	Redis     RedisConfig
	Auth      AuthConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Driver string
	Path   string // sqlite file
	URL    string // postgres connection string
}

type SunoConfig struct {
	APIKey      string
	BaseURL     string
	CallbackURL string
	Model       string
	Timeout     time.Duration
}

type PollerConfig struct {
	Backend     string
	Interval    time.Duration
	MaxAttempts int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Enabled bool
	// Issuer enables JWKS verification of tokens from an OIDC provider. The
	// key set is discovered from the issuer unless JWKSURL is given.
	Issuer   string
	JWKSURL  string
	Audience string
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerHour int
	StemsPerHour    int
}

// StorageConfig points at an S3-compatible bucket (R2, MinIO, S3) that
// finished tracks are archived to
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	MaxObjectMB     int
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("SUNO_API_KEY")
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("DATABASE_URL")
	readSecret("STORAGE_ACCESS_KEY_ID")
	readSecret("STORAGE_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = viper.BindEnv("database.path", "DATABASE_PATH")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("suno.api_key", "SUNO_API_KEY")
	_ = viper.BindEnv("suno.base_url", "SUNO_BASE_URL")
	_ = viper.BindEnv("suno.callback_url", "SUNO_CALLBACK_URL")
	_ = viper.BindEnv("suno.model", "SUNO_MODEL")
	_ = viper.BindEnv("suno.timeout", "SUNO_TIMEOUT")
	_ = viper.BindEnv("poller.backend", "POLLER_BACKEND")
	_ = viper.BindEnv("poller.interval", "POLLER_INTERVAL")
	_ = viper.BindEnv("poller.max_attempts", "POLLER_MAX_ATTEMPTS")
	_ = viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	_ = viper.BindEnv("auth.issuer", "AUTH_ISSUER")
	_ = viper.BindEnv("auth.jwks_url", "AUTH_JWKS_URL")
	_ = viper.BindEnv("auth.audience", "AUTH_AUDIENCE")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("ratelimit.generate_per_hour", "RATELIMIT_GENERATE_PER_HOUR")
	_ = viper.BindEnv("ratelimit.stems_per_hour", "RATELIMIT_STEMS_PER_HOUR")
	_ = viper.BindEnv("storage.enabled", "STORAGE_ENABLED")
	_ = viper.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	_ = viper.BindEnv("storage.region", "STORAGE_REGION")
	_ = viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	_ = viper.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	_ = viper.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	_ = viper.BindEnv("storage.max_object_mb", "STORAGE_MAX_OBJECT_MB")

	viper.SetDefault("server.port", "3001")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("database.driver", DriverSQLite)
	viper.SetDefault("database.path", "studio.db")
	viper.SetDefault("suno.base_url", "https://api.sunoapi.org")
	viper.SetDefault("suno.model", "V4_5")
	viper.SetDefault("suno.timeout", 60*time.Second)
	viper.SetDefault("poller.backend", PollerBackendLocal)
	viper.SetDefault("poller.interval", 5*time.Second)
	viper.SetDefault("poller.max_attempts", 120)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24*30)
	viper.SetDefault("ratelimit.generate_per_hour", 30)
	viper.SetDefault("ratelimit.stems_per_hour", 30)
	viper.SetDefault("storage.enabled", false)
	viper.SetDefault("storage.region", "auto")
	viper.SetDefault("storage.max_object_mb", 100)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(viper.GetString("database.driver")),
			Path:   viper.GetString("database.path"),
			URL:    viper.GetString("database.url"),
		},
		Suno: SunoConfig{
			APIKey:      viper.GetString("suno.api_key"),
			BaseURL:     strings.TrimRight(viper.GetString("suno.base_url"), "/"),
			CallbackURL: viper.GetString("suno.callback_url"),
			Model:       viper.GetString("suno.model"),
			Timeout:     viper.GetDuration("suno.timeout"),
		},
		Poller: PollerConfig{
			Backend:     strings.ToLower(viper.GetString("poller.backend")),
			Interval:    viper.GetDuration("poller.interval"),
			MaxAttempts: viper.GetInt("poller.max_attempts"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Enabled:  viper.GetBool("auth.enabled"),
			Issuer:   strings.TrimRight(viper.GetString("auth.issuer"), "/"),
			JWKSURL:  viper.GetString("auth.jwks_url"),
			Audience: viper.GetString("auth.audience"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			StemsPerHour:    viper.GetInt("ratelimit.stems_per_hour"),
		},
		Storage: StorageConfig{
			Enabled:         viper.GetBool("storage.enabled"),
			Endpoint:        strings.TrimRight(viper.GetString("storage.endpoint"), "/"),
			Region:          viper.GetString("storage.region"),
			Bucket:          viper.GetString("storage.bucket"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			PublicURL:       strings.TrimRight(viper.GetString("storage.public_url"), "/"),
			MaxObjectMB:     viper.GetInt("storage.max_object_mb"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Poller.Backend {
	case PollerBackendLocal:
	case PollerBackendAsynq:
		if !c.Redis.Enabled {
			return fmt.Errorf("poller.backend=asynq requires redis.enabled")
		}
	default:
		return fmt.Errorf("unsupported poller.backend %q", c.Poller.Backend)
	}

	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be positive")
	}
	if c.Poller.MaxAttempts <= 0 {
		return fmt.Errorf("poller.max_attempts must be positive")
	}
	if c.Auth.Enabled && c.JWT.Secret == "" && c.Auth.Issuer == "" && c.Auth.JWKSURL == "" {
		return fmt.Errorf("jwt.secret, auth.issuer or auth.jwks_url is required when auth is enabled")
	}
	if c.Storage.Enabled {
		if c.Storage.Bucket == "" || c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "" {
			return fmt.Errorf("storage.bucket and storage credentials are required when storage is enabled")
		}
		if c.Storage.MaxObjectMB <= 0 {
			return fmt.Errorf("storage.max_object_mb must be positive")
		}
	}
	return nil
}

// IsDevelopment reports whether the server runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
