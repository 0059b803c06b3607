// Package config loads server settings from the environment and an optional
// YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string `yaml:"http_port"`
	CORSOrigins string `yaml:"cors_origins"`

	// memory | sqlite | postgres
	StorageDriver string `yaml:"storage_driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	DatabaseDSN   string `yaml:"database_dsn"`

	// fs | s3 | memory
	BlobDriver  string `yaml:"blob_driver"`
	BlobFSRoot  string `yaml:"blob_fs_root"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`

	LogLevel string `yaml:"log_level"`

	LowStockThreshold float64 `yaml:"low_stock_threshold"`

	// current | sale
	RevenuePricing string `yaml:"revenue_pricing"`
	Timezone       string `yaml:"timezone"`
	// seconds a single background write may take
	PersistTimeout int `yaml:"persist_timeout"`
}

// Default returns the built-in settings used when nothing is configured.
func Default() *Config {
	return &Config{
		HTTPPort:          "8080",
		CORSOrigins:       "http://localhost:5173",
		StorageDriver:     "sqlite",
		SQLitePath:        "./data/restoran-pos.db",
		DatabaseDSN:       defaultDSN,
		BlobDriver:        "fs",
		BlobFSRoot:        "./data/archive",
		S3Region:          "us-east-1",
		LogLevel:          "info",
		LowStockThreshold: 10,
		RevenuePricing:    "current",
		Timezone:          "Local",
		PersistTimeout:    10,
	}
}

// Load reads the environment, overlays POS_CONFIG_FILE when set and validates
// the result.
func Load() (*Config, error) {
	def := Default()
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", def.HTTPPort),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", def.CORSOrigins),
		StorageDriver:  getEnv("POS_STORAGE_DRIVER", def.StorageDriver),
		SQLitePath:     getEnv("POS_SQLITE_PATH", def.SQLitePath),
		DatabaseDSN:    getEnv("DATABASE_DSN", def.DatabaseDSN),
		BlobDriver:     getEnv("POS_BLOB_DRIVER", def.BlobDriver),
		BlobFSRoot:     getEnv("POS_BLOB_FS_ROOT", def.BlobFSRoot),
		S3Bucket:       getEnv("POS_BLOB_S3_BUCKET", def.S3Bucket),
		S3Region:       getEnv("POS_BLOB_S3_REGION", def.S3Region),
		S3Endpoint:     getEnv("POS_BLOB_S3_ENDPOINT", def.S3Endpoint),
		LogLevel:       getEnv("LOG_LEVEL", def.LogLevel),
		RevenuePricing: getEnv("POS_REVENUE_PRICING", def.RevenuePricing),
		Timezone:       getEnv("POS_TIMEZONE", def.Timezone),
	}

	var err error
	if cfg.S3PathStyle, err = getEnvBool("POS_BLOB_S3_PATH_STYLE", def.S3PathStyle); err != nil {
		return nil, err
	}
	if cfg.LowStockThreshold, err = getEnvFloat("POS_LOW_STOCK_THRESHOLD", def.LowStockThreshold); err != nil {
		return nil, err
	}
	if cfg.PersistTimeout, err = getEnvInt("POS_PERSIST_TIMEOUT", def.PersistTimeout); err != nil {
		return nil, err
	}

	if path := os.Getenv("POS_CONFIG_FILE"); path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile parses a YAML file. Keys absent from the file stay zero so
// Merge leaves the corresponding settings alone.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Merge copies the non-zero fields of other into c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	mergeString(&c.HTTPPort, other.HTTPPort)
	mergeString(&c.CORSOrigins, other.CORSOrigins)
	mergeString(&c.StorageDriver, other.StorageDriver)
	mergeString(&c.SQLitePath, other.SQLitePath)
	mergeString(&c.DatabaseDSN, other.DatabaseDSN)
	mergeString(&c.BlobDriver, other.BlobDriver)
	mergeString(&c.BlobFSRoot, other.BlobFSRoot)
	mergeString(&c.S3Bucket, other.S3Bucket)
	mergeString(&c.S3Region, other.S3Region)
	mergeString(&c.S3Endpoint, other.S3Endpoint)
	if other.S3PathStyle {
		c.S3PathStyle = true
	}
	mergeString(&c.LogLevel, other.LogLevel)
	if other.LowStockThreshold != 0 {
		c.LowStockThreshold = other.LowStockThreshold
	}
	mergeString(&c.RevenuePricing, other.RevenuePricing)
	mergeString(&c.Timezone, other.Timezone)
	if other.PersistTimeout != 0 {
		c.PersistTimeout = other.PersistTimeout
	}
}

func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http_port is required")
	}
	switch c.StorageDriver {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("database_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage_driver %q", c.StorageDriver)
	}
	switch c.BlobDriver {
	case "memory", "fs":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown blob_driver %q", c.BlobDriver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("low_stock_threshold must not be negative")
	}
	if c.RevenuePricing != "current" && c.RevenuePricing != "sale" {
		return fmt.Errorf("revenue_pricing must be current or sale")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.PersistTimeout < 1 {
		return fmt.Errorf("persist_timeout must be at least 1 second")
	}
	return nil
}

// Location resolves Timezone; "today" on the dashboard is computed in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AllowedOrigins splits the comma separated CORS origins.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Warnings lists settings left at development defaults.
func (c *Config) Warnings() []string {
	var w []string
	if c.StorageDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		w = append(w, "DATABASE_DSN is the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == Default().CORSOrigins {
		w = append(w, "CORS_ALLOWED_ORIGINS is the default value, set your own domain for production")
	}
	if c.StorageDriver == "memory" {
		w = append(w, "memory storage driver selected, state is lost on exit")
	}
	return w
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
