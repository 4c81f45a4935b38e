package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	app_service "proofdrop-scorer/internal/application/service"
	"proofdrop-scorer/internal/domain/repository"
	domain_service "proofdrop-scorer/internal/domain/service"
	"proofdrop-scorer/internal/infrastructure/config"
	"proofdrop-scorer/internal/infrastructure/database"
	"proofdrop-scorer/internal/infrastructure/httpapi"
	"proofdrop-scorer/internal/infrastructure/logger"
	"proofdrop-scorer/internal/infrastructure/messaging"
	"proofdrop-scorer/internal/infrastructure/metrics"
	"proofdrop-scorer/internal/infrastructure/thegraph"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	log = log.WithFields(map[string]interface{}{
		"service":  "proofdrop-scorer",
		"env":      cfg.App.Env,
		"chain_id": cfg.App.ChainID,
	})

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Providers.TheGraph),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			newActivityRepository,
			thegraph.NewClient,
			messaging.NewNATSConsumer,
			metrics.NewScorerMetrics,
		),

		// Domain services
		fx.Provide(newReputationEngine),

		// Application providers
		fx.Provide(
			newCountProviders,
			newScoringService,
		),

		// Lifecycle hooks
		fx.Invoke(startNeo4J),
		fx.Invoke(startScorer),
		fx.Invoke(startHTTPServer),
		fx.Invoke(startMetricsServer),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// newReputationEngine builds the pure scoring pipeline from validated configuration
func newReputationEngine(cfg *config.Config, log *logger.Logger) (*domain_service.ReputationEngine, error) {
	scoring, err := cfg.ScoringConfig()
	if err != nil {
		return nil, err
	}
	tiers, err := cfg.BadgeTiers()
	if err != nil {
		return nil, err
	}

	routers := domain_service.NewRouterRegistry(cfg.Scoring.DexRouterAddresses...)
	if routers.Len() == 0 {
		log.Warn("No DEX routers configured, swaps are only detected by event name")
	}
	log.Info("Reputation engine configured", zap.Int("dex_routers", routers.Len()))
	log.Debug("DEX router registry", zap.Strings("routers", routers.Addresses()))

	return domain_service.NewReputationEngine(
		domain_service.NewMetricsDeriver(routers),
		domain_service.NewScoreCalculator(scoring),
		domain_service.NewBadgeClassifier(tiers),
	), nil
}

// newActivityRepository returns nil when the indexer graph is disabled
func newActivityRepository(cfg *config.Config, client *database.Neo4JClient, log *logger.Logger) repository.ActivityRepository {
	if !cfg.Neo4J.Enabled {
		return nil
	}
	return database.NewNeo4JActivityRepository(client, log)
}

func newCountProviders(cfg *config.Config, subgraph *thegraph.Client, activity repository.ActivityRepository, log *logger.Logger) []domain_service.CountProvider {
	catalog := app_service.NewProviderCatalog(subgraph, activity)
	providers := app_service.SelectProviders(cfg.Providers.Order, catalog, log)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	log.Info("Supplemental providers configured", zap.Strings("providers", names))

	return providers
}

func newScoringService(
	cfg *config.Config,
	engine *domain_service.ReputationEngine,
	providers []domain_service.CountProvider,
	m *metrics.ScorerMetrics,
	log *logger.Logger,
) domain_service.ReputationService {
	return app_service.NewScoringApplicationService(engine, providers, cfg.Providers.Timeout, m, log)
}

// startNeo4J connects to the indexer graph. A failed connection leaves the
// Neo4j providers degrading to zero instead of blocking startup.
func startNeo4J(lifecycle fx.Lifecycle, cfg *config.Config, client *database.Neo4JClient, log *logger.Logger) {
	if !cfg.Neo4J.Enabled {
		return
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Connecting to Neo4J database")
			if err := client.Connect(ctx); err != nil {
				log.Warn("Neo4J unavailable, graph providers will contribute zero", zap.Error(err))
				return nil
			}
			log.Info("Successfully connected to Neo4J database")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := client.Close(ctx); err != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(err))
			}
			return nil
		},
	})
}

// startScorer connects to NATS and runs the worker pool over score requests
func startScorer(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	scorer domain_service.ReputationService,
	m *metrics.ScorerMetrics,
	log *logger.Logger,
	cfg *config.Config,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled))

			if err := consumer.Connect(ctx); err != nil {
				cancel()
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				processJobs(runCtx, consumer, scorer, m, log, cfg)
			}()

			log.Info("Scoring service started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping scoring service...")
			err := consumer.Disconnect()

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				log.Warn("Workers did not finish before shutdown deadline")
			}
			cancel()
			return err
		},
	})
}

// processJobs fans score requests out to a fixed worker pool until the job channel closes
func processJobs(
	ctx context.Context,
	consumer *messaging.NATSConsumer,
	scorer domain_service.ReputationService,
	m *metrics.ScorerMetrics,
	log *logger.Logger,
	cfg *config.Config,
) {
	workers := cfg.App.WorkerPoolSize
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log.Debug("Starting score worker", zap.Int("worker_id", workerID))

			for job := range consumer.Jobs() {
				handleJob(ctx, job, consumer, scorer, m, log, cfg.App.RequestTimeout)
			}
		}(i)
	}
	wg.Wait()
}

func handleJob(
	ctx context.Context,
	job messaging.ScoreJob,
	consumer *messaging.NATSConsumer,
	scorer domain_service.ReputationService,
	m *metrics.ScorerMetrics,
	log *logger.Logger,
	timeout time.Duration,
) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := scorer.Score(ctx, job.Request.Snapshot())
	if err != nil {
		log.Error("Failed to score wallet", zap.String("address", job.Request.Address), zap.Error(err))
		m.ObserveRequest("nats", "error")
		consumer.ReplyError(job, err)
		return
	}

	payload, err := consumer.PublishReport(report)
	if err != nil && !errors.Is(err, messaging.ErrNotConnected) {
		log.Warn("Failed to publish report", zap.String("address", report.Address), zap.Error(err))
	}
	if payload != nil {
		if err := consumer.Reply(job, payload); err != nil {
			log.Warn("Failed to reply to score request", zap.String("address", report.Address), zap.Error(err))
		}
	}

	m.ObserveRequest("nats", "ok")
	log.Debug("Score request handled",
		zap.String("address", report.Address),
		zap.Duration("latency", time.Since(job.ReceivedAt)))
}

// healthChecks reports connectivity of the enabled backends on /health
func healthChecks(cfg *config.Config, consumer *messaging.NATSConsumer, graph *database.Neo4JClient) map[string]httpapi.HealthCheck {
	checks := make(map[string]httpapi.HealthCheck)
	if cfg.NATS.Enabled {
		checks["nats"] = func(context.Context) bool {
			return consumer.IsConnected()
		}
	}
	if cfg.Neo4J.Enabled {
		checks["neo4j"] = graph.IsConnected
	}
	return checks
}

// startHTTPServer serves the score API
func startHTTPServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	scorer domain_service.ReputationService,
	consumer *messaging.NATSConsumer,
	graph *database.Neo4JClient,
	m *metrics.ScorerMetrics,
	log *logger.Logger,
) {
	serverCfg := httpapi.DefaultServerConfig(cfg.App.HTTPPort)
	if cfg.App.RequestTimeout > 0 {
		serverCfg.RequestTimeout = cfg.App.RequestTimeout
	}
	server := httpapi.NewServer(serverCfg, scorer, m, healthChecks(cfg, consumer, graph), log)

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// startMetricsServer exposes Prometheus metrics on their own port
func startMetricsServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	m *metrics.ScorerMetrics,
	log *logger.Logger,
) {
	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting metrics server...", zap.Int("port", cfg.Metrics.Port))

			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Metrics server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping metrics server...")
			return server.Shutdown(ctx)
		},
	})
}
