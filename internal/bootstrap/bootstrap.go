// Package bootstrap holds the startup steps shared by the server and seed commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/config"
	"github.com/example/moviecatalog/internal/db"
	"github.com/example/moviecatalog/internal/firebase"
)

// LoadEnvFile loads .env into the process environment unless GIN_MODE is release.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewLogger returns a production logger in release mode and a development logger otherwise.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.IsRelease() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Store is the movie collection plus the Firebase clients behind it, if any.
type Store struct {
	Movies  db.Collection
	Clients *firebase.Clients
}

// Close releases the Firebase clients.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.Clients.Close()
}

// OpenStore opens the backend selected by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using in-memory movie store; data is lost on exit and auth is disabled")
		return &Store{Movies: db.NewMemoryCollection()}, nil
	case config.StoreFirestore:
		clients, err := firebase.Init(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		col, err := db.NewFirestoreCollection(clients.Firestore, cfg.MoviesCollection)
		if err != nil {
			_ = clients.Close()
			return nil, err
		}
		return &Store{Movies: col, Clients: clients}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
