package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-notes-server/internal/cache"
	"go-notes-server/internal/config"
	"go-notes-server/internal/database"
	"go-notes-server/internal/handler"
	"go-notes-server/internal/metrics"
	"go-notes-server/internal/middleware"
	"go-notes-server/internal/repository"
	"go-notes-server/internal/router"
	"go-notes-server/internal/service"
	"go-notes-server/internal/session"
	"go-notes-server/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	slog.Info("database ready")

	// Redis is optional. Without an address the in-memory store backs
	// sessions and rate limits; with one, a failed connect still starts the
	// server and the store degrades per-operation.
	var store cache.Store
	var storeClose func()
	if cfg.RedisAddr != "" {
		redisStore := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStore.Connect(context.Background()); err != nil {
			slog.Warn("redis unavailable, continuing degraded", "addr", cfg.RedisAddr, "error", err)
		}
		store = redisStore
		storeClose = func() { _ = redisStore.Close() }
	} else {
		slog.Info("no REDIS_ADDR configured, using in-memory cache store")
		store = cache.NewMemoryStore()
	}

	codec, err := token.NewCodec(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	metrics.Init()

	sessions := session.NewRegistry(store)
	authService := service.NewAuthService(userRepo, codec, sessions)
	noteService := service.NewNoteService(noteRepo)

	authMiddleware := middleware.NewAuthMiddleware(codec, userRepo, cfg.SecureCookies)
	authzMiddleware := middleware.NewAuthzMiddleware(userRepo)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(store, cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	authHandler := handler.NewAuthHandler(authService, cfg.SecureCookies)
	sessionHandler := handler.NewSessionHandler(authService)
	noteHandler := handler.NewNoteHandler(noteService)
	userHandler := handler.NewUserHandler(authService)
	healthHandler := handler.NewHealthHandler(db, store)

	appRouter := router.New(
		cfg,
		authMiddleware,
		authzMiddleware,
		rateLimitMiddleware,
		authHandler,
		sessionHandler,
		noteHandler,
		userHandler,
		healthHandler,
	)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	cleanup := []func(){db.Close}
	if storeClose != nil {
		cleanup = append(cleanup, storeClose)
	}

	return &App{
		server:       server,
		db:           db,
		cleanupFuncs: cleanup,
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
