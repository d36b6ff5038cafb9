package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/models"
)

// Errors returned by MovieService in addition to catalog.ValidationError and
// catalog.RemoteError.
var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrDuplicateTitle = errors.New("a movie with this title already exists")
)

// movieService implements the MovieService interface.
type movieService struct {
	repo         MovieRepository
	auditService AuditService
	logger       *zap.Logger
}

// NewMovieService creates a new MovieService.
func NewMovieService(repo MovieRepository, as AuditService, logger *zap.Logger) MovieService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &movieService{repo: repo, auditService: as, logger: logger}
}

func (s *movieService) ListMovies(_ context.Context) []models.Movie {
	return s.repo.Movies()
}

// GetMovie looks the movie up in the live cache.
func (s *movieService) GetMovie(_ context.Context, movieID string) (*models.Movie, error) {
	movie, ok := s.repo.Find(movieID)
	if !ok {
		return nil, fmt.Errorf("%w: id '%s'", ErrMovieNotFound, movieID)
	}
	return movie, nil
}

func (s *movieService) CheckTitle(ctx context.Context, title, excludeID string) (bool, error) {
	return s.repo.CheckTitleUnique(ctx, title, excludeID)
}

func (s *movieService) ensureUniqueTitle(ctx context.Context, title, excludeID string) error {
	unique, err := s.repo.CheckTitleUnique(ctx, title, excludeID)
	if err != nil {
		return err
	}
	if !unique {
		return fmt.Errorf("%w: '%s'", ErrDuplicateTitle, title)
	}
	return nil
}

// CreateMovie rejects duplicate titles, then creates the movie.
func (s *movieService) CreateMovie(ctx context.Context, userID string, req models.CreateMovieRequest) (*models.Movie, error) {
	if err := s.ensureUniqueTitle(ctx, req.Title, ""); err != nil {
		return nil, err
	}

	movie := models.NewMovie(req.Title, req.Genre, req.Year)
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, err
	}

	s.audit(ctx, models.AuditLog{
		UserID:   userID,
		Action:   models.AuditActionMovieCreate,
		TargetID: movie.ID,
		Details:  map[string]interface{}{"title": movie.Title, "genre": movie.Genre, "year": movie.Year},
	})
	return movie, nil
}

// UpdateMovie replaces the fields of a cached movie. The title may stay the
// same; it only has to be unique among the other movies.
func (s *movieService) UpdateMovie(ctx context.Context, userID, movieID string, req models.UpdateMovieRequest) (*models.Movie, error) {
	movie, err := s.GetMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(ctx, req.Title, movie.ID); err != nil {
		return nil, err
	}
	previousTitle := movie.Title

	if err := s.repo.Update(ctx, movie, req.Title, req.Genre, req.Year); err != nil {
		return nil, err
	}

	s.audit(ctx, models.AuditLog{
		UserID:   userID,
		Action:   models.AuditActionMovieUpdate,
		TargetID: movie.ID,
		Details: map[string]interface{}{
			"previous_title": previousTitle,
			"title":          movie.Title,
			"genre":          movie.Genre,
			"year":           movie.Year,
		},
	})
	return movie, nil
}

func (s *movieService) DeleteMovie(ctx context.Context, userID, movieID string) error {
	movie, err := s.GetMovie(ctx, movieID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, movie); err != nil {
		return err
	}

	s.audit(ctx, models.AuditLog{
		UserID:   userID,
		Action:   models.AuditActionMovieDelete,
		TargetID: movie.ID,
		Details:  map[string]interface{}{"title": movie.Title},
	})
	return nil
}

// audit records entry; failures are logged and never fail the mutation.
func (s *movieService) audit(ctx context.Context, entry models.AuditLog) {
	if s.auditService == nil {
		return
	}
	entry.TargetType = models.AuditTargetMovie
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to create audit log",
			zap.String("action", entry.Action),
			zap.String("movieId", entry.TargetID),
			zap.Error(err),
		)
	}
}
