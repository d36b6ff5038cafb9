package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/api"
	"github.com/example/moviecatalog/internal/bootstrap"
	"github.com/example/moviecatalog/internal/catalog"
	"github.com/example/moviecatalog/internal/config"
	"github.com/example/moviecatalog/internal/core"
	"github.com/example/moviecatalog/internal/messagequeue"
	"github.com/example/moviecatalog/internal/middleware"
)

func main() {
	// --- 1. Environment and configuration ---
	if err := bootstrap.LoadEnvFile(".env"); err != nil {
		log.Printf("WARNING: %v", err)
	}
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Logger ---
	zapLogger, err := bootstrap.NewLogger(appConfig)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("storeBackend", appConfig.StoreBackend))

	// --- 3. Movie store ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := bootstrap.OpenStore(initCtx, appConfig, zapLogger)
	cancelInit()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open movie store", zap.Error(err))
	}
	defer store.Close()

	// --- 4. Repository and the cache-filling subscription ---
	repo := catalog.NewRepository(store.Movies, zapLogger)
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	cacheSub := repo.Subscribe(appCtx)
	go func() {
		for ev := range cacheSub.Events() {
			if ev.Err != nil {
				zapLogger.Error("Movie listener stopped; the cache will no longer update", zap.Error(ev.Err))
				continue
			}
			zapLogger.Debug("Movie cache refreshed", zap.Int("count", len(ev.Movies)))
		}
	}()

	// --- 5. Audit publisher (optional) ---
	var publisher messagequeue.Publisher
	if appConfig.RabbitMQURL != "" {
		rmq, err := messagequeue.NewRabbitMQPublisher(appConfig.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rmq.Close()
		publisher = rmq
	} else {
		zapLogger.Info("RABBITMQ_URL not set; audit records go to the log")
	}

	// --- 6. Services ---
	auditService := core.NewAuditService(publisher, appConfig.AuditQueue, zapLogger)
	movieService := core.NewMovieService(repo, auditService, zapLogger)

	// --- 7. Gin engine and global middleware ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured")
	}

	var authMW *middleware.AuthMiddleware
	if store.Clients != nil && store.Clients.Auth != nil {
		authMW = middleware.NewAuthMiddleware(store.Clients.Auth, zapLogger)
	}

	// --- 8. Routes ---
	api.SetupRoutes(router, zapLogger, movieService, repo, authMW)

	// --- 9. HTTP server with graceful shutdown ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return appCtx },
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Request contexts derive from appCtx; cancelling it ends open SSE streams.
	cancelApp()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	cacheSub.Stop()

	zapLogger.Info("Server exiting gracefully.")
}
