package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venuepoint-terminal/internal/cache"
	"venuepoint-terminal/internal/camera"
	"venuepoint-terminal/internal/config"
	"venuepoint-terminal/internal/decode"
	"venuepoint-terminal/internal/guard"
	"venuepoint-terminal/internal/handler"
	"venuepoint-terminal/internal/journal"
	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/middleware"
	"venuepoint-terminal/internal/orchestrator"
	"venuepoint-terminal/internal/resolver"
	"venuepoint-terminal/internal/router"
	"venuepoint-terminal/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting VenuePoint terminal...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize journal repository based on config
	var journalRepo journal.Repository
	switch cfg.Journal.Type {
	case "mysql":
		mysqlDB, err := sql.Open("mysql", cfg.Journal.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Fatalf("MySQL ping failed: %v", err)
		}
		repo, err := journal.NewMySQLRepository(mysqlDB)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL journal: %v", err)
		}
		journalRepo = repo
		log.Println("MySQL journal repository initialized")
	default: // sqlite
		repo, err := journal.NewSQLiteRepository(cfg.Journal.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite journal: %v", err)
		}
		journalRepo = repo
		log.Println("SQLite journal repository initialized")
	}
	defer journalRepo.Close()

	// Initialize Redis client (optional)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Cache: Redis when available, in-memory otherwise
	var store cache.Cache
	if redisClient != nil && cfg.Cache.Type == "redis" {
		store = cache.NewRedisCache(redisClient, "venuepoint:cache:")
		log.Println("Redis cache initialized")
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		store = memCache
		log.Println("Memory cache initialized")
	}

	// Backend ledger client; the merchant API key is passed explicitly
	// into every call, never held in ambient state.
	backend := ledger.NewClient(ledger.ClientConfig{
		BaseURL: cfg.Ledger.BaseURL,
		Timeout: cfg.Ledger.Timeout,
		Creds:   ledger.StaticCredential(cfg.Ledger.APIKey),
	})

	// Balance guard with read-through cache, warmed from the last run
	balanceGuard := guard.New(backend, store, cfg.Guard.CacheTTL)
	balanceGuard.Warm(context.Background())

	// Identity resolver
	res := resolver.New(backend, resolver.Config{
		QuietInterval:  cfg.Resolver.QuietInterval,
		MinQueryLength: cfg.Resolver.MinQueryLength,
		LookupTimeout:  cfg.Ledger.Timeout,
	})

	// Transaction orchestrator, fed by the resolver
	orch := orchestrator.New(backend, balanceGuard, journalRepo)
	res.OnChange(orch.SetCustomer)

	// Camera: file-backed device in development, capture bridge otherwise
	var device camera.Device
	if cfg.Camera.Enabled && cfg.Camera.FrameDir != "" {
		device = camera.NewFileDevice(cfg.Camera.FrameDir, cfg.Camera.FrameInterval)
		log.Printf("File-backed camera device initialized (dir=%s)", cfg.Camera.FrameDir)
	}
	cameraManager := camera.NewManager(device)

	var decoder decode.Decoder
	if cfg.Camera.Enabled {
		decoder = decode.NewQRDecoder()
	}

	// Journal retention
	retention := service.NewRetentionScheduler(journalRepo, service.RetentionConfig{
		MaxAge:   cfg.Journal.MaxAge,
		Interval: cfg.Journal.CleanupEvery,
	})
	retention.Start()
	defer retention.Stop()

	// Operator session tokens (requires Redis)
	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	identifyHandler := handler.NewIdentifyHandler(res, orch)
	scanHandler := handler.NewScanHandler(cameraManager, decoder, res, orch)
	balanceHandler := handler.NewBalanceHandler(balanceGuard)
	transactionHandler := handler.NewTransactionHandler(orch)
	journalHandler := handler.NewJournalHandler(journalRepo)

	var authHandler *handler.AuthHandler
	if tokenService != nil {
		authHandler = handler.NewAuthHandler(tokenService, cfg.App.MerchantID, cfg.App.TerminalID, cfg.App.TerminalKey)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
		TerminalKey:  cfg.App.TerminalKey,
	})

	// Create router
	r := router.New(router.Config{
		Handler:            healthHandler,
		AuthHandler:        authHandler,
		IdentifyHandler:    identifyHandler,
		ScanHandler:        scanHandler,
		BalanceHandler:     balanceHandler,
		TransactionHandler: transactionHandler,
		JournalHandler:     journalHandler,
		AuthMiddleware:     authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Terminal API listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down terminal...")

	// Release the camera before anything else; the device must never
	// outlive its owner.
	scanHandler.Shutdown()

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Terminal stopped")
}
