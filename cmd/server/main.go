package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/client"
	"github.com/pesio-ai/be-mes-scenarios/internal/handler"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/config"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/database"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/logger"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/middleware"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
	"github.com/pesio-ai/be-mes-scenarios/internal/scenario"
	"github.com/pesio-ai/be-mes-scenarios/internal/scenariopb"
	"github.com/pesio-ai/be-mes-scenarios/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Str("tenant_id", cfg.Tenant.ID).
		Msg("Starting Scenario Executor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load scenario catalog
	cat, err := loadCatalog(cfg.Scenario.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Scenario.CatalogPath).Msg("Failed to load scenario catalog")
	}
	log.Info().Int("scenarios", len(cat.IDs())).Msg("Scenario catalog loaded")

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize repositories
	txManager := repository.NewTxManager(db)
	optionsRepo := repository.NewOptionsRepository(db, cfg.Tenant.ID)

	// Optional execution events
	var events service.EventPublisher
	if cfg.NATS.URL != "" {
		nc, err := client.ConnectNATS(cfg.NATS.URL, cfg.Service.Name, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("Execution events disabled")
		} else {
			defer nc.Drain()
			events = client.NewNotificationPublisher(nc, cfg.NATS.SubjectPrefix, log.Logger)
			log.Info().Str("url", cfg.NATS.URL).Str("prefix", cfg.NATS.SubjectPrefix).Msg("Execution events enabled")
		}
	}

	// Initialize services
	executor := service.NewExecutorService(
		cat,
		scenario.DefaultRegistry(),
		txManager,
		optionsRepo,
		events,
		service.ExecutorConfig{
			TenantID: cfg.Tenant.ID,
			Random:   scenario.NewRandom(cfg.Scenario.RandomSeed),
		},
		log,
	)

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	handler.NewHTTPHandler(executor, log).Register(mux)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS(cfg.Server.CORSOrigins)(h)
	h = middleware.Timeout(cfg.Server.RequestTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Setup gRPC server
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		handler.LoggingInterceptor(log.Logger),
		handler.RecoveryInterceptor(log.Logger),
	))
	scenariopb.RegisterScenarioServiceServer(grpcServer, handler.NewGRPCHandler(executor, log.Logger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(scenariopb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer) // Enable reflection for debugging

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.GRPCPort).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server stopped")
}

// loadCatalog reads the catalog at path, or the embedded one when path is empty.
func loadCatalog(path string) (*catalog.Registry, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
