package core

import (
	"context"

	"github.com/example/moviecatalog/internal/models"
)

// MovieService defines the catalog operations exposed to transports.
type MovieService interface {
	ListMovies(ctx context.Context) []models.Movie
	GetMovie(ctx context.Context, movieID string) (*models.Movie, error)
	CreateMovie(ctx context.Context, userID string, req models.CreateMovieRequest) (*models.Movie, error)
	UpdateMovie(ctx context.Context, userID, movieID string, req models.UpdateMovieRequest) (*models.Movie, error)
	DeleteMovie(ctx context.Context, userID, movieID string) error
	CheckTitle(ctx context.Context, title, excludeID string) (bool, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}

// MovieRepository is the subset of catalog.Repository the service relies on.
type MovieRepository interface {
	Movies() []models.Movie
	Find(id string) (*models.Movie, bool)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, movie *models.Movie, title, genre string, year int) error
	Delete(ctx context.Context, movie *models.Movie) error
	CheckTitleUnique(ctx context.Context, title, excludeID string) (bool, error)
}
