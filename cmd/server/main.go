package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nutrihub/backend/config"
	httpDelivery "github.com/nutrihub/backend/internal/delivery/http"
	"github.com/nutrihub/backend/internal/domain"
	"github.com/nutrihub/backend/internal/infrastructure/cache"
	"github.com/nutrihub/backend/internal/infrastructure/providers/fatsecret"
	"github.com/nutrihub/backend/internal/infrastructure/providers/nutritionix"
	"github.com/nutrihub/backend/internal/infrastructure/providers/openfoodfacts"
	"github.com/nutrihub/backend/internal/infrastructure/providers/usda"
	"github.com/nutrihub/backend/internal/infrastructure/usage"
	"github.com/nutrihub/backend/internal/usecase"
)

const clientTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting NutriHub Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)
	log.Printf("Usage Store: %s", cfg.Usage.Store)

	cacheStore := buildCacheStore(cfg)
	usageStore := buildUsageStore(cfg)

	registry := buildRegistry(cfg)
	log.Printf("Providers in rotation: %v", registry.EnabledProviders())

	tracker := usecase.NewUsageTracker(usageStore)
	searchService := usecase.NewSearchService(cacheStore, tracker, registry, usecase.SearchServiceConfig{
		CacheTTL:       cfg.Cache.TTL,
		CallTimeout:    cfg.Search.CallTimeout,
		BreakerEnabled: cfg.Search.BreakerEnabled,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, tracker)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func buildCacheStore(cfg *config.Config) domain.CacheStore {
	if cfg.Cache.Type == "redis" {
		store := cache.NewRedisCache(cache.RedisConfig{
			Address:  cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		log.Printf("Redis cache configured: %s", cfg.Cache.RedisAddr)
		return store
	}
	return cache.NewMemoryCache()
}

func buildUsageStore(cfg *config.Config) domain.UsageStore {
	if cfg.Usage.Store == "postgres" {
		store, err := usage.NewPostgresStore(cfg.Usage.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres usage store: %v", err)
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure usage schema: %v", err)
		}
		log.Printf("Postgres usage store configured")
		return store
	}
	return usage.NewMemoryStore()
}

// buildRegistry constructs adapters for every provider block and
// registers them; the registry's config decides which are in rotation.
func buildRegistry(cfg *config.Config) *usecase.ProviderRegistry {
	registry := usecase.NewProviderRegistry(cfg.ProviderConfigs())

	p := cfg.Providers

	usdaClient := usda.NewClient(
		p.USDA.APIKey, p.USDA.BaseURL, p.USDA.RateLimitPerHour, clientTimeout)
	if cfg.Server.Environment == "development" {
		usdaClient.SetDebug(true)
	}
	registry.Register(usdaClient)

	registry.Register(nutritionix.NewClient(
		p.Nutritionix.AppID, p.Nutritionix.AppKey, p.Nutritionix.BaseURL,
		perDayToPerHour(p.Nutritionix.RateLimitPerDay), clientTimeout))

	registry.Register(fatsecret.NewClient(
		p.FatSecret.ClientID, p.FatSecret.ClientSecret,
		p.FatSecret.BaseURL, p.FatSecret.TokenURL,
		perDayToPerHour(p.FatSecret.RateLimitPerDay), clientTimeout))

	registry.Register(openfoodfacts.NewClient(
		p.OpenFoodFacts.BaseURL, p.OpenFoodFacts.RateLimitPerHour, clientTimeout))

	return registry
}

// perDayToPerHour spreads a daily quota evenly across the day.
func perDayToPerHour(perDay int) int {
	if perDay <= 0 {
		return 0
	}
	perHour := perDay / 24
	if perHour < 1 {
		perHour = 1
	}
	return perHour
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
