// Package catalog keeps a live mirror of the movie collection and performs
// validated writes against it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/db"
	"github.com/example/moviecatalog/internal/models"
)

const titleField = "title"

// Repository is the data-access layer for the movie catalog.
// Writes go straight to the collection; the cached movie list is refreshed
// only by subscriptions (see Subscribe).
type Repository struct {
	col    db.Collection
	logger *zap.Logger

	mu       sync.RWMutex
	movies   []models.Movie
	readTime time.Time // read time of the snapshot behind movies
}

// NewRepository creates a Repository over col. A nil logger disables logging.
func NewRepository(col db.Collection, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{col: col, logger: logger}
}

// Movies returns a copy of the cached movies in snapshot order.
func (r *Repository) Movies() []models.Movie {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Movie, len(r.movies))
	copy(out, r.movies)
	return out
}

// Find returns a copy of the cached movie with the given ID.
func (r *Repository) Find(id string) (*models.Movie, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.movies {
		if r.movies[i].ID == id {
			m := r.movies[i]
			return &m, true
		}
	}
	return nil, false
}

// Validate reports whether movie can be written to the document resolvedID:
// the IDs match, title and genre are non-empty and the year is positive.
func Validate(movie *models.Movie, resolvedID string) bool {
	return len(validationReasons(movie, resolvedID)) == 0
}

func validationReasons(movie *models.Movie, resolvedID string) []string {
	if movie == nil {
		return []string{"movie is nil"}
	}
	var reasons []string
	if movie.ID != resolvedID {
		reasons = append(reasons, fmt.Sprintf("id %q does not match document id %q", movie.ID, resolvedID))
	}
	if movie.Title == "" {
		reasons = append(reasons, "title is empty")
	}
	if movie.Genre == "" {
		reasons = append(reasons, "genre is empty")
	}
	if movie.Year <= 0 {
		reasons = append(reasons, fmt.Sprintf("year %d is not positive", movie.Year))
	}
	return reasons
}

func validate(movie *models.Movie, resolvedID string) error {
	if reasons := validationReasons(movie, resolvedID); len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// Create assigns a new store-generated ID to movie, validates it and writes it.
// movie.ID is set even when validation fails.
func (r *Repository) Create(ctx context.Context, movie *models.Movie) error {
	if movie == nil {
		return &ValidationError{Reasons: []string{"movie is nil"}}
	}
	id := r.col.NewDocID()
	movie.ID = id
	if err := validate(movie, id); err != nil {
		return err
	}
	if err := r.col.Set(ctx, id, movie); err != nil {
		return &RemoteError{Op: "create movie", Err: err}
	}
	r.logger.Debug("Movie created", zap.String("movieId", id), zap.String("title", movie.Title))
	return nil
}

// Update replaces title, genre and year of movie. The new values are validated
// on a copy and only copied into movie once the write succeeded, so a rejected
// or failed update leaves movie unchanged.
func (r *Repository) Update(ctx context.Context, movie *models.Movie, title, genre string, year int) error {
	if movie == nil {
		return &ValidationError{Reasons: []string{"movie is nil"}}
	}
	candidate := *movie
	candidate.Title = title
	candidate.Genre = genre
	candidate.Year = year

	if err := validate(&candidate, r.col.ResolveID(movie.ID)); err != nil {
		return err
	}
	if err := r.col.Set(ctx, candidate.ID, &candidate); err != nil {
		return &RemoteError{Op: "update movie", Err: err}
	}
	*movie = candidate
	r.logger.Debug("Movie updated", zap.String("movieId", movie.ID))
	return nil
}

// Delete removes the document backing movie. The cache is not touched; the
// next snapshot drops the movie.
func (r *Repository) Delete(ctx context.Context, movie *models.Movie) error {
	if movie == nil {
		return &ValidationError{Reasons: []string{"movie is nil"}}
	}
	if err := r.col.Delete(ctx, movie.ID); err != nil {
		if errors.Is(err, db.ErrInvalidDocumentID) {
			return &ValidationError{Reasons: []string{err.Error()}}
		}
		return &RemoteError{Op: "delete movie", Err: err}
	}
	r.logger.Debug("Movie deleted", zap.String("movieId", movie.ID))
	return nil
}

// CheckTitleUnique reports whether no movie other than excludeID has the given
// title. excludeID is the movie being edited, or "" when creating.
func (r *Repository) CheckTitleUnique(ctx context.Context, title, excludeID string) (bool, error) {
	docs, err := r.col.WhereEqual(ctx, titleField, title)
	if err != nil {
		return false, &RemoteError{Op: "error checking for duplicate titles", Err: err}
	}
	for _, doc := range docs {
		if excludeID != "" && doc.ID() == excludeID {
			continue
		}
		return false, nil
	}
	return true, nil
}

// replaceCache decodes every document of snap, in order, and swaps the result
// in as the new cache. Documents that fail to decode are logged and skipped.
// A snapshot read before the one already cached is returned but not swapped in,
// so a lagging listener cannot roll the cache back.
func (r *Repository) replaceCache(snap *db.Snapshot) []models.Movie {
	movies := make([]models.Movie, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		var m models.Movie
		if err := doc.DataTo(&m); err != nil {
			r.logger.Warn("Skipping undecodable movie document", zap.String("movieId", doc.ID()), zap.Error(err))
			continue
		}
		m.ID = doc.ID()
		movies = append(movies, m)
	}

	r.mu.Lock()
	if snap.ReadTime.Before(r.readTime) {
		r.logger.Debug("Ignoring older snapshot for the cache",
			zap.Time("readTime", snap.ReadTime), zap.Time("cachedReadTime", r.readTime))
	} else {
		r.movies = movies
		r.readTime = snap.ReadTime
	}
	r.mu.Unlock()

	out := make([]models.Movie, len(movies))
	copy(out, movies)
	return out
}
