package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/trade-sphere/pkg/config"
	"github.com/chris/trade-sphere/pkg/coordinator"
	"github.com/chris/trade-sphere/pkg/events"
	"github.com/chris/trade-sphere/pkg/handlers"
	wshandler "github.com/chris/trade-sphere/pkg/handlers/websockets"
	"github.com/chris/trade-sphere/pkg/metrics"
	"github.com/chris/trade-sphere/pkg/storage"
	dydbstore "github.com/chris/trade-sphere/pkg/storage/dynamodb"
	"github.com/chris/trade-sphere/pkg/storage/memory"
	"github.com/chris/trade-sphere/pkg/websockets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatalf("invalid log level: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	var store storage.Storage
	var emitters events.Multi
	switch cfg.StorageBackend {
	case config.BackendDynamoDB:
		// AWS Session
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("unable to load SDK config, %v", err)
		}
		store = dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.Tables{
			Trades:   cfg.DynamoDB.TradesTable,
			Tokens:   cfg.DynamoDB.TokensTable,
			Wallets:  cfg.DynamoDB.WalletsTable,
			Ledger:   cfg.DynamoDB.LedgerTable,
			Counters: cfg.DynamoDB.CountersTable,
		})
		if cfg.SQSQueueURL != "" {
			emitters = append(emitters, events.NewSQSEmitter(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL))
		}
	default:
		store = memory.New()
	}

	hub := websockets.NewHub(logger)
	emitters = append(emitters, hub)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := coordinator.New(store, coordinator.Principals{
		Admin:    cfg.AdminPrincipal,
		Arbiter:  cfg.ArbiterPrincipal,
		Contract: cfg.ContractPrincipal,
	})
	c.SetLogger(logger)
	c.SetEmitter(emitters)
	c.SetMetrics(metrics.New(registry))

	router := handlers.NewRouter(handlers.NewApiHandler(c), handlers.Options{
		Logger:    logger,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		WebSocket: wshandler.NewHandler(hub),
	})

	logger.Info("starting server",
		"port", cfg.HTTPPort,
		"storage_backend", cfg.StorageBackend,
		"vault", cfg.ContractPrincipal,
	)

	// Start the server
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
