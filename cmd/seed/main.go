package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/bootstrap"
	"github.com/example/moviecatalog/internal/catalog"
	"github.com/example/moviecatalog/internal/config"
	"github.com/example/moviecatalog/internal/core"
	"github.com/example/moviecatalog/internal/seed"
)

func main() {
	filePath := flag.String("file", "movies.yaml", "YAML file with a top-level movies list")
	flag.Parse()

	if err := bootstrap.LoadEnvFile(".env"); err != nil {
		log.Printf("WARNING: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load configuration: %v", err)
	}
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer logger.Sync()

	if err := seed.CheckBackend(cfg.StoreBackend); err != nil {
		logger.Fatal("Refusing to seed", zap.Error(err))
	}

	f, err := os.Open(*filePath)
	if err != nil {
		logger.Fatal("Failed to open seed file", zap.String("path", *filePath), zap.Error(err))
	}
	movies, err := seed.Load(f)
	f.Close()
	if err != nil {
		logger.Fatal("Failed to read seed file", zap.String("path", *filePath), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open movie store", zap.Error(err))
	}
	defer store.Close()

	repo := catalog.NewRepository(store.Movies, logger)
	svc := core.NewMovieService(repo, core.NewAuditService(nil, cfg.AuditQueue, logger), logger)

	res, err := seed.Run(ctx, svc, movies, logger)
	logger.Info("Seed finished",
		zap.Int("created", res.Created),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("invalid", res.Invalid),
	)
	if err != nil {
		logger.Error("Seed aborted", zap.Error(err))
		store.Close()
		logger.Sync()
		os.Exit(1)
	}
}
