// Package seed bulk-imports movies from a YAML file.
//
// The file format is:
//
//	movies:
//	  - title: Oppenheimer
//	    genre: Thriller/Historical Drama
//	    year: 2023
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/moviecatalog/internal/catalog"
	"github.com/example/moviecatalog/internal/config"
	"github.com/example/moviecatalog/internal/core"
	"github.com/example/moviecatalog/internal/models"
)

// SeedUserID is recorded as the author of seeded movies in audit records.
const SeedUserID = "seed"

// ErrEphemeralStore is returned by CheckBackend for a store that does not outlive the process.
var ErrEphemeralStore = errors.New("seeding requires a persistent store")

// CheckBackend rejects store backends whose data is lost when the seed command exits.
func CheckBackend(backend string) error {
	if backend == config.StoreMemory {
		return fmt.Errorf("%w: STORE_BACKEND=%s is discarded on exit", ErrEphemeralStore, backend)
	}
	return nil
}

type file struct {
	Movies []models.CreateMovieRequest `yaml:"movies"`
}

// Result counts what happened to each row of a seed file.
type Result struct {
	Created    int
	Duplicates int
	Invalid    int
}

// Load decodes a seed file.
func Load(r io.Reader) ([]models.CreateMovieRequest, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return f.Movies, nil
}

// Run creates every movie through svc. Duplicate titles and invalid rows are
// skipped and counted; any other error stops the import.
func Run(ctx context.Context, svc core.MovieService, movies []models.CreateMovieRequest, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	for i, req := range movies {
		movie, err := svc.CreateMovie(ctx, SeedUserID, req)
		switch {
		case err == nil:
			res.Created++
			logger.Info("Seeded movie", zap.String("movieId", movie.ID), zap.String("title", movie.Title))
		case errors.Is(err, core.ErrDuplicateTitle):
			res.Duplicates++
			logger.Warn("Skipping duplicate title", zap.Int("row", i), zap.String("title", req.Title))
		case errors.Is(err, catalog.ErrInvalidMovie):
			res.Invalid++
			logger.Warn("Skipping invalid movie", zap.Int("row", i), zap.Error(err))
		default:
			return res, fmt.Errorf("seed row %d (%q): %w", i, req.Title, err)
		}
	}
	return res, nil
}
