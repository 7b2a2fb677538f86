// Package config loads and validates the process configuration from the
// environment, with an optional YAML overlay for algorithm thresholds.
package config

import (
	"fmt"
	"os"
	"strconv"

	"resale-pricing-backend/internal/service/seasonal"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Environment string `validate:"oneof=development staging production"`
	HTTPPort    int    `validate:"min=1,max=65535"`

	AWSRegion          string `validate:"required"`
	TableName          string `validate:"required"`
	CategoryIndexName  string
	EmbeddingIndexName string
	RetentionYears     int `validate:"min=1,max=10"`

	MemoryStoreURL   string
	MemoryStoreToken string

	EventBusName string

	InsightsCron  string
	TopCategories int `validate:"min=1,max=100"`
	TopBrands     int `validate:"min=1,max=50"`

	Seasonal seasonal.Config
}

// Load builds the configuration from environment variables, applies the
// optional threshold overlay named by CONFIG_FILE, and validates once.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		HTTPPort:           getEnvInt("HTTP_PORT", 8080),
		AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
		TableName:          getEnv("SALES_TABLE_NAME", "sales-history-dev"),
		CategoryIndexName:  getEnv("CATEGORY_INDEX_NAME", "CategorySeasonIndex"),
		EmbeddingIndexName: getEnv("EMBEDDING_INDEX_NAME", "BrandEmbeddingIndex"),
		RetentionYears:     getEnvInt("RETENTION_YEARS", 2),
		MemoryStoreURL:     getEnv("MEMORY_STORE_URL", ""),
		MemoryStoreToken:   getEnv("MEMORY_STORE_TOKEN", ""),
		EventBusName:       getEnv("EVENT_BUS_NAME", ""),
		InsightsCron:       getEnv("INSIGHTS_CRON", "0 4 * * 0"),
		TopCategories:      getEnvInt("INSIGHTS_TOP_CATEGORIES", 10),
		TopBrands:          getEnvInt("INSIGHTS_TOP_BRANDS", 5),
		Seasonal:           seasonal.DefaultConfig(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay is the YAML shape of the threshold override file.
type overlay struct {
	Seasonal *seasonal.Config `yaml:"seasonal"`
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	if o.Seasonal != nil {
		c.Seasonal = *o.Seasonal
	}
	return nil
}

// Validate checks the whole configuration, including the seasonal
// thresholds. Called once at load; call sites never re-check.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return c.Seasonal.Validate()
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
