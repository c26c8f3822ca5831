package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends for the client-local state
const (
	StoreBackendFile     = "file"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Platform    PlatformConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Catalog     CatalogConfig
	Cart        CartConfig
	Admin       AdminConfig
}

type PlatformConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StoreConfig struct {
	Backend string
	Path    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type CatalogConfig struct {
	PageSize int
}

type CartConfig struct {
	MergeOnLogin bool
}

type AdminConfig struct {
	KeyHash string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_BACKEND", StoreBackendFile)
	viper.SetDefault("CATALOG_PAGE_SIZE", "9")

	viper.AutomaticEnv()

	// .env is optional, env vars are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(getEnvOrViper("PLATFORM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_TIMEOUT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnvOrViper("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	pageSize, err := strconv.Atoi(getEnvOrViper("CATALOG_PAGE_SIZE", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATALOG_PAGE_SIZE: %w", err)
	}
	mergeOnLogin, err := strconv.ParseBool(getEnvOrViper("CART_MERGE_ON_LOGIN", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid CART_MERGE_ON_LOGIN: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Platform: PlatformConfig{
			BaseURL: strings.TrimSuffix(getEnvOrViper("PLATFORM_BASE_URL", ""), "/"),
			Timeout: timeout,
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnvOrViper("STORE_BACKEND", StoreBackendFile)),
			Path:    getEnvOrViper("STORE_PATH", ".storefront/local.json"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Prefix:   getEnvOrViper("REDIS_PREFIX", "egc:"),
		},
		Catalog: CatalogConfig{
			PageSize: pageSize,
		},
		Cart: CartConfig{
			MergeOnLogin: mergeOnLogin,
		},
		Admin: AdminConfig{
			KeyHash: getEnvOrViper("ADMIN_KEY_HASH", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and enumerated values
func (c *Config) Validate() error {
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("PLATFORM_BASE_URL is required")
	}
	if c.Platform.Timeout <= 0 {
		return fmt.Errorf("PLATFORM_TIMEOUT must be positive")
	}
	switch c.Store.Backend {
	case StoreBackendFile:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the file backend")
		}
	case StoreBackendRedis, StoreBackendPostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Catalog.PageSize < 1 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be at least 1")
	}
	return nil
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
