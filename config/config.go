package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

// Config is the process-wide configuration of the API server.
type Config struct {
	Env          string
	Port         string
	GRPCPort     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	JWTSecret  string
	AccessTTL  time.Duration
	BcryptCost int
	MaxUpload  int64
	LogLevel   string
	LogFormat  string
	Database   *DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Media      MediaConfig
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	CacheTTL time.Duration
}

type NATSConfig struct {
	URL      string
	ClientID string
}

// MediaConfig selects where uploaded files go. Backend is "local" or "cloudinary".
type MediaConfig struct {
	Backend          string
	Dir              string
	BaseURL          string
	CloudName        string
	CloudinaryKey    string
	CloudinarySecret string
	CloudinaryFolder string
}

const defaultJWTSecret = "your-secret-key"

// Load reads the full configuration from the environment.
func Load() (*Config, error) {
	dbCfg, err := LoadDatabaseConfig("")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "3000"),
		GRPCPort:     getEnv("GRPC_PORT", "50051"),
		ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:  getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		AccessTTL:    getEnvAsDuration("ACCESS_TOKEN_EXPIRY", time.Hour),
		BcryptCost:   getEnvAsInt("BCRYPT_COST", 10),
		MaxUpload:    int64(getEnvAsInt("MAX_UPLOAD_BYTES", 50<<20)),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
		Database:     dbCfg,
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		NATS: NATSConfig{
			URL:      getEnv("NATS_URL", ""),
			ClientID: getEnv("NATS_CLIENT_ID", "buzznest"),
		},
		Media: MediaConfig{
			Backend:          strings.ToLower(getEnv("MEDIA_BACKEND", "local")),
			Dir:              getEnv("MEDIA_DIR", "uploads"),
			BaseURL:          strings.TrimRight(getEnv("MEDIA_BASE_URL", "http://localhost:3000/media"), "/"),
			CloudName:        getEnv("CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryKey:    getEnv("CLOUDINARY_API_KEY", ""),
			CloudinarySecret: getEnv("CLOUDINARY_API_SECRET", ""),
			CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "uploads"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.Env == "production" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY must be positive")
	}
	if c.MaxUpload <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	switch c.Media.Backend {
	case "local":
	case "cloudinary":
		if c.Media.CloudName == "" || c.Media.CloudinaryKey == "" || c.Media.CloudinarySecret == "" {
			return fmt.Errorf("cloudinary media backend requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.Media.Backend)
	}
	return nil
}

// LoadDatabaseConfig loads database configuration from environment variables
func LoadDatabaseConfig(prefix string) (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{
		Driver:       getEnv(prefix+"DB_DRIVER", "postgres"),
		Host:         getEnv(prefix+"DB_HOST", "postgres"),
		User:         getEnv(prefix+"DB_USER", "postgres"),
		Password:     getEnv(prefix+"DB_PASSWORD", "postgres"),
		DBName:       getEnv(prefix+"DB_NAME", "buzznest"),
		SSLMode:      getEnv(prefix+"DB_SSLMODE", "disable"),
		MaxOpenConns: getEnvAsInt(prefix+"DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns: getEnvAsInt(prefix+"DB_MAX_IDLE_CONNS", 5),
		MaxLifetime:  getEnvAsDuration(prefix+"DB_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:  getEnvAsBool(prefix+"DB_AUTO_MIGRATE", true),
	}

	var err error
	cfg.Port, err = strconv.Atoi(getEnv(prefix+"DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid database port: %w", err)
	}

	switch cfg.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported database driver %q (set %sDB_DRIVER)", cfg.Driver, prefix)
	}

	if cfg.DBName == "" {
		return nil, fmt.Errorf("database name is required (set %sDB_NAME)", prefix)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
