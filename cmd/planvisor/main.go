package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planvisor/internal/analytics"
	"github.com/planvisor/internal/api"
	"github.com/planvisor/internal/billing"
	"github.com/planvisor/internal/cache"
	"github.com/planvisor/internal/catalog"
	"github.com/planvisor/internal/classification"
	"github.com/planvisor/internal/config"
	"github.com/planvisor/internal/costbenefit"
	"github.com/planvisor/internal/equivalency"
	"github.com/planvisor/internal/events"
	"github.com/planvisor/internal/health"
	"github.com/planvisor/internal/narrative"
	"github.com/planvisor/internal/recommendation"
	"github.com/planvisor/internal/scoring"
	"github.com/planvisor/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path")
		showVersion = flag.Bool("version", false, "Show version information")
		help        = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if *showVersion {
		printVersion()
		return
	}

	log.Printf("Starting Planvisor v%s (commit: %s, built: %s)", version, commit, date)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	graphStore, err := store.NewNeo4jStore(cfg.GraphStoreConfig())
	if err != nil {
		log.Fatalf("Failed to initialize graph store: %v", err)
	}
	defer graphStore.Close()

	planCatalog := catalog.NewStatic()
	resolver := classification.NewResolver(graphStore)
	aggregator := analytics.NewAggregator(analytics.DefaultConfig())

	scoringConfig := cfg.ScoringConfig()
	if err := scoringConfig.Validate(); err != nil {
		log.Fatalf("Invalid scoring configuration: %v", err)
	}
	engine := scoring.NewEngine(scoringConfig, planCatalog)
	analyzer := costbenefit.NewAnalyzer(cfg.AnalyzerCostConfig(), planCatalog)
	mapper := equivalency.NewMapper(cfg.MapperConfig(), planCatalog, analyzer)

	checker := health.NewChecker()
	checker.Register(health.NewPingCheck("neo4j", graphStore, 100*time.Millisecond))

	opts := make([]recommendation.Option, 0, 4)

	if cfg.Redis.Enabled {
		metricsCache := cache.NewRedisCache(cfg.RedisCacheConfig())
		defer metricsCache.Close()
		checker.Register(health.NewPingCheck("redis", metricsCache, 50*time.Millisecond))
		opts = append(opts, recommendation.WithMetricsCache(metricsCache, cfg.Redis.TTL))
	}

	if cfg.Kafka.Enabled {
		publisher, err := events.NewKafkaPublisher(cfg.PublisherConfig())
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, recommendation.WithEventPublisher(publisher))
	}

	if cfg.OpenAI.Enabled {
		summarizer := narrative.NewOpenAISummarizer(cfg.SummarizerConfig())
		opts = append(opts, recommendation.WithSummarizer(summarizer))
	}

	if cfg.Stripe.Enabled {
		provisioner := billing.NewProvisioner(cfg.Stripe.APIKey)
		opts = append(opts, recommendation.WithDiscountProvisioner(provisioner))
	}

	service := recommendation.NewService(graphStore, resolver, aggregator,
		engine, analyzer, mapper, planCatalog, opts...)

	gateway := api.NewGateway(gatewayConfig(cfg), service, planCatalog, checker)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gateway.Start()
	}()

	waitForShutdown(errCh, gateway)
}

func gatewayConfig(cfg *config.Config) api.GatewayConfig {
	gc := api.DefaultGatewayConfig()
	gc.Host = cfg.API.Host
	gc.Port = cfg.API.Port
	gc.ReadTimeout = cfg.API.ReadTimeout
	gc.WriteTimeout = cfg.API.WriteTimeout
	gc.IdleTimeout = cfg.API.IdleTimeout
	gc.RequestTimeout = cfg.API.RequestTimeout
	gc.EnableCORS = cfg.API.EnableCORS
	gc.AllowedOrigins = cfg.API.AllowedOrigins
	gc.AllowedMethods = cfg.API.AllowedMethods
	gc.AllowedHeaders = cfg.API.AllowedHeaders
	return gc
}

func printHelp() {
	fmt.Printf(`Planvisor - Plan Recommendation & Migration Analysis Engine

Usage:
  planvisor [flags]

Flags:
  -config string
        Configuration file path (built-in defaults when omitted)
  -version
        Show version information
  -help
        Show this help message

Examples:
  planvisor                                    # Start with default config
  planvisor -config config/production.yaml     # Start with production config
  planvisor -version                           # Show version
`)
}

func printVersion() {
	fmt.Printf("Planvisor version %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Built: %s\n", date)
}

func waitForShutdown(errCh <-chan error, gateway *api.Gateway) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, stopping services...", sig)
	case err := <-errCh:
		if err != nil {
			log.Printf("Gateway stopped: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		log.Printf("Error during gateway shutdown: %v", err)
	}

	log.Println("Planvisor stopped")
}
