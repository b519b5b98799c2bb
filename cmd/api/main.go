package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lucasmoreno-dev/devisio-backend/api/routes"
	"github.com/lucasmoreno-dev/devisio-backend/internal/catalog"
	"github.com/lucasmoreno-dev/devisio-backend/internal/clients"
	"github.com/lucasmoreno-dev/devisio-backend/internal/devis"
	"github.com/lucasmoreno-dev/devisio-backend/internal/params"
	"github.com/lucasmoreno-dev/devisio-backend/internal/signing"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/db"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/esign"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/metrics"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/migrate"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	signingMetrics := metrics.NewSigningMetrics(registry)

	paramsService, err := params.NewService(params.ServiceParams{
		Repo: params.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create params service", err)
		os.Exit(1)
	}

	clientsService, err := clients.NewService(clients.ServiceParams{
		Repo: clients.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create clients service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalog.NewRepository(dbClient.DB()),
		Params: paramsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	devisService, err := devis.NewService(devis.ServiceParams{
		Repo:    devis.NewRepository(dbClient.DB()),
		Catalog: catalogService,
		Params:  paramsService,
		Tx:      dbClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create devis service", err)
		os.Exit(1)
	}

	tokenSource, err := esign.NewTokenSource(cfg.ESign, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create esign token source", err)
		os.Exit(1)
	}
	envelopeClient := esign.NewClient(cfg.ESign, tokenSource, signingMetrics)

	signingService, err := signing.NewService(signing.ServiceParams{
		Repo:      signing.NewRepository(dbClient.DB()),
		Devis:     devisService,
		Envelopes: envelopeClient,
		Forwarder: signing.NewHTTPForwarder(cfg.Notify.Timeout),
		Tx:        dbClient,
		Logger:    logg,
		Metrics:   signingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create signing service", err)
		os.Exit(1)
	}

	webhookGuard, err := signing.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "signing-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	webhookURL := strings.TrimRight(cfg.App.BaseURL, "/") + "/api/v1/webhooks/signing"

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"esign_env": cfg.ESign.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Gatherer:     registry,
			Clients:      clientsService,
			Catalog:      catalogService,
			Params:       paramsService,
			Devis:        devisService,
			Signing:      signingService,
			WebhookGuard: webhookGuard,
			WebhookURL:   webhookURL,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
