package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nutrihub/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Cache     CacheConfig
	Usage     UsageConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProvidersConfig groups the per-provider configuration blocks.
type ProvidersConfig struct {
	USDA          USDAConfig          `mapstructure:"usda"`
	Nutritionix   NutritionixConfig   `mapstructure:"nutritionix"`
	FatSecret     FatSecretConfig     `mapstructure:"fatsecret"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
}

// USDAConfig holds USDA FoodData Central API configuration
type USDAConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	APIKey           string `mapstructure:"api_key"`
	BaseURL          string `mapstructure:"base_url"`
	RateLimitPerHour int    `mapstructure:"rate_limit_per_hour"`
}

// NutritionixConfig holds Nutritionix API configuration
type NutritionixConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	AppID           string `mapstructure:"app_id"`
	AppKey          string `mapstructure:"app_key"`
	BaseURL         string `mapstructure:"base_url"`
	RateLimitPerDay int    `mapstructure:"rate_limit_per_day"`
}

// FatSecretConfig holds FatSecret Platform API configuration
type FatSecretConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	BaseURL         string `mapstructure:"base_url"`
	TokenURL        string `mapstructure:"token_url"`
	RateLimitPerDay int    `mapstructure:"rate_limit_per_day"`
}

// OpenFoodFactsConfig holds Open Food Facts configuration. The API is
// keyless, so only the endpoint and a polite rate limit are tunable.
type OpenFoodFactsConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	BaseURL          string `mapstructure:"base_url"`
	RateLimitPerHour int    `mapstructure:"rate_limit_per_hour"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type          string        `mapstructure:"type"` // "memory" or "redis"
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// UsageConfig holds usage-log storage configuration
type UsageConfig struct {
	Store       string `mapstructure:"store"` // "memory" or "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// SearchConfig holds orchestration tunables
type SearchConfig struct {
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
	BreakerEnabled bool          `mapstructure:"breaker_enabled"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutrihub/")

	// Environment variable settings
	v.SetEnvPrefix("NUTRIHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Provider defaults
	v.SetDefault("providers.usda.enabled", true)
	v.SetDefault("providers.usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("providers.usda.rate_limit_per_hour", 1000)

	v.SetDefault("providers.nutritionix.enabled", true)
	v.SetDefault("providers.nutritionix.base_url", "https://trackapi.nutritionix.com")
	v.SetDefault("providers.nutritionix.rate_limit_per_day", 200)

	v.SetDefault("providers.fatsecret.enabled", true)
	v.SetDefault("providers.fatsecret.base_url", "https://platform.fatsecret.com")
	v.SetDefault("providers.fatsecret.token_url", "https://oauth.fatsecret.com/connect/token")
	v.SetDefault("providers.fatsecret.rate_limit_per_day", 5000)

	v.SetDefault("providers.openfoodfacts.enabled", true)
	v.SetDefault("providers.openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("providers.openfoodfacts.rate_limit_per_hour", 100)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.redis_db", 0)

	// Usage-log defaults
	v.SetDefault("usage.store", "memory")

	// Search defaults
	v.SetDefault("search.call_timeout", "5s")
	v.SetDefault("search.breaker_enabled", true)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisAddr == "" {
		return fmt.Errorf("Redis address is required when cache type is 'redis'")
	}

	if config.Usage.Store != "memory" && config.Usage.Store != "postgres" {
		return fmt.Errorf("usage store must be 'memory' or 'postgres', got: %s", config.Usage.Store)
	}

	if config.Usage.Store == "postgres" && config.Usage.PostgresDSN == "" {
		return fmt.Errorf("Postgres DSN is required when usage store is 'postgres'")
	}

	if config.Search.CallTimeout <= 0 {
		return fmt.Errorf("search call timeout must be positive, got: %s", config.Search.CallTimeout)
	}

	return nil
}

// ProviderConfigs derives the registry view of the provider blocks.
// A provider that requires credentials is reported without them when
// the keys are absent so the registry can keep it out of rotation.
func (c *Config) ProviderConfigs() []domain.ProviderConfig {
	usda := c.Providers.USDA
	nix := c.Providers.Nutritionix
	fs := c.Providers.FatSecret
	off := c.Providers.OpenFoodFacts

	return []domain.ProviderConfig{
		{
			Name:             "usda",
			Enabled:          usda.Enabled && usda.APIKey != "",
			HasCredentials:   usda.APIKey != "",
			RateLimitPerHour: usda.RateLimitPerHour,
		},
		{
			Name:            "nutritionix",
			Enabled:         nix.Enabled && nix.AppID != "" && nix.AppKey != "",
			HasCredentials:  nix.AppID != "" && nix.AppKey != "",
			RateLimitPerDay: nix.RateLimitPerDay,
		},
		{
			Name:            "fatsecret",
			Enabled:         fs.Enabled && fs.ClientID != "" && fs.ClientSecret != "",
			HasCredentials:  fs.ClientID != "" && fs.ClientSecret != "",
			RateLimitPerDay: fs.RateLimitPerDay,
		},
		{
			Name:             "openfoodfacts",
			Enabled:          off.Enabled,
			HasCredentials:   true, // keyless API
			RateLimitPerHour: off.RateLimitPerHour,
		},
	}
}
