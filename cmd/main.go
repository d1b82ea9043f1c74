package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"github.com/davidbz/turnstile/internal/config"
	"github.com/davidbz/turnstile/internal/domain"
	"github.com/davidbz/turnstile/internal/http"
	"github.com/davidbz/turnstile/internal/http/middleware"
	"github.com/davidbz/turnstile/internal/identity"
	redisledger "github.com/davidbz/turnstile/internal/ledger/redis"
	"github.com/davidbz/turnstile/internal/observability"
	"github.com/davidbz/turnstile/internal/upstream"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server) {
		if err := server.Start(); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Persistent store. One client, shared by the ledger and the
	// transaction log for the lifetime of the process.
	if err := container.Provide(func(cfg *config.RedisConfig) *redis.Client {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}); err != nil {
		log.Fatalf("Failed to provide redis client: %v", err)
	}
	if err := container.Provide(func(client *redis.Client) domain.AccountLedger {
		return redisledger.NewLedger(client)
	}); err != nil {
		log.Fatalf("Failed to provide account ledger: %v", err)
	}
	if err := container.Provide(func(client *redis.Client) domain.TransactionLog {
		return redisledger.NewTransactionLog(client)
	}); err != nil {
		log.Fatalf("Failed to provide transaction log: %v", err)
	}

	// Identity Verifier
	if err := container.Provide(func(cfg *identity.Config) (domain.IdentityVerifier, error) {
		return identity.NewVerifier(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide identity verifier: %v", err)
	}

	// Upstream Invoker
	if err := container.Provide(func(cfg *upstream.Config) (domain.UpstreamInvoker, error) {
		return upstream.NewClient(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide upstream client: %v", err)
	}

	// Pricing
	if err := container.Provide(func() (domain.PricingRegistry, error) {
		registry := domain.NewInMemoryPricingRegistry()
		if err := upstream.RegisterPricing(context.Background(), registry); err != nil {
			return nil, err
		}
		return registry, nil
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}
	if err := container.Provide(func(registry domain.PricingRegistry) domain.CostCalculator {
		return domain.NewMeteredCostCalculator(registry)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewMeterService); err != nil {
		log.Fatalf("Failed to provide meter service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
