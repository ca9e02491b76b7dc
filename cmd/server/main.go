package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"local-electrician/internal/domain/repository"
	"local-electrician/internal/infrastructure/config"
	"local-electrician/internal/infrastructure/persistence"
	"local-electrician/internal/interface/httpapi"
	storeRepo "local-electrician/internal/interface/repository"
	"local-electrician/internal/usecase"
	"local-electrician/pkg/logger"
	"local-electrician/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting Local Electrician Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection (primary store)
	log.Info("Connecting to MongoDB")
	mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	db := persistence.GetDatabase(mongoClient, cfg.MongoDB)

	// Set up PostgreSQL connection (fallback ledger)
	log.Info("Connecting to PostgreSQL ledger")
	gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	m := metrics.NewMetrics("electrician")

	// Set up stores
	primary := storeRepo.NewMongoRequestRepository(db)
	ledger := storeRepo.NewGormLedgerRepository(gormDB)
	dualStore := storeRepo.NewDualStore(primary, ledger, log, m)

	// Set up directory client with redis cache
	httpDirectory := storeRepo.NewHTTPDirectory(cfg.DirectoryBaseURL, cfg.DirectoryToken, log)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	var directory repository.ElectricianDirectory = httpDirectory
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, directory cache disabled", "error", err)
	} else {
		directory = storeRepo.NewCachedDirectory(httpDirectory, redisClient, cfg.DirectoryCacheTTL, log)
	}

	// Set up usecases
	geoIndex := usecase.NewGeoIndex(directory, log)
	dispatcher := usecase.NewDispatcher(dualStore, directory, httpDirectory.Customers(), geoIndex, cfg.DefaultRadiusKm, log, m)
	arbiter := usecase.NewArbiter(dualStore, directory, log, m)
	polling := usecase.NewPollingGateway(dualStore, directory, cfg.RetentionWindow, log)
	reviews := usecase.NewReviews(dualStore, log)

	// Start ledger backfill in a goroutine
	go dualStore.RunBackfill(ctx, cfg.BackfillInterval)

	// Set up HTTP server
	router := chi.NewRouter()
	handler := httpapi.NewHandler(dispatcher, arbiter, polling, reviews, log)
	handler.RegisterRoutes(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	// Let in-flight ledger mirrors finish
	dualStore.Flush()

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Local Electrician Service stopped")
}
