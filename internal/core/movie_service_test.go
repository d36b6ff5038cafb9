package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/moviecatalog/internal/catalog"
	"github.com/example/moviecatalog/internal/models"
)

type fakeMovieRepo struct {
	movies []models.Movie

	unique   bool
	checkErr error
	checked  []string // excludeIDs seen by CheckTitleUnique

	createErr error
	updateErr error
	deleteErr error
	created   []*models.Movie
	deleted   []string
}

func (f *fakeMovieRepo) Movies() []models.Movie { return f.movies }

func (f *fakeMovieRepo) Find(id string) (*models.Movie, bool) {
	for _, m := range f.movies {
		if m.ID == id {
			m := m
			return &m, true
		}
	}
	return nil, false
}

func (f *fakeMovieRepo) Create(_ context.Context, movie *models.Movie) error {
	movie.ID = "new-id"
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, movie)
	return nil
}

func (f *fakeMovieRepo) Update(_ context.Context, movie *models.Movie, title, genre string, year int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	movie.Title, movie.Genre, movie.Year = title, genre, year
	return nil
}

func (f *fakeMovieRepo) Delete(_ context.Context, movie *models.Movie) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, movie.ID)
	return nil
}

func (f *fakeMovieRepo) CheckTitleUnique(_ context.Context, _ string, excludeID string) (bool, error) {
	f.checked = append(f.checked, excludeID)
	return f.unique, f.checkErr
}

type fakeAudit struct {
	entries []models.AuditLog
	err     error
}

func (f *fakeAudit) CreateAuditLog(_ context.Context, entry models.AuditLog) error {
	f.entries = append(f.entries, entry)
	return f.err
}

func TestMovieService_CreateMovie(t *testing.T) {
	repo := &fakeMovieRepo{unique: true}
	audit := &fakeAudit{}
	svc := NewMovieService(repo, audit, nil)

	movie, err := svc.CreateMovie(context.Background(), "user-1", models.CreateMovieRequest{Title: "Oppenheimer", Genre: "Drama", Year: 2023})

	require.NoError(t, err)
	assert.Equal(t, "new-id", movie.ID)
	assert.Equal(t, []string{""}, repo.checked)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionMovieCreate, audit.entries[0].Action)
	assert.Equal(t, models.AuditTargetMovie, audit.entries[0].TargetType)
	assert.Equal(t, "user-1", audit.entries[0].UserID)
	assert.Equal(t, "new-id", audit.entries[0].TargetID)
}

func TestMovieService_CreateMovieDuplicateTitle(t *testing.T) {
	repo := &fakeMovieRepo{unique: false}
	audit := &fakeAudit{}
	svc := NewMovieService(repo, audit, nil)

	_, err := svc.CreateMovie(context.Background(), "", models.CreateMovieRequest{Title: "Oppenheimer", Genre: "Drama", Year: 2023})

	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Empty(t, repo.created)
	assert.Empty(t, audit.entries)
}

func TestMovieService_CreateMovieErrorsPassThrough(t *testing.T) {
	checkErr := &catalog.RemoteError{Op: "error checking for duplicate titles", Err: errors.New("unavailable")}
	svc := NewMovieService(&fakeMovieRepo{checkErr: checkErr}, nil, nil)
	_, err := svc.CreateMovie(context.Background(), "", models.CreateMovieRequest{Title: "X", Genre: "Y", Year: 1})
	var rerr *catalog.RemoteError
	assert.ErrorAs(t, err, &rerr)

	svc = NewMovieService(&fakeMovieRepo{unique: true, createErr: &catalog.ValidationError{Reasons: []string{"genre is empty"}}}, nil, nil)
	_, err = svc.CreateMovie(context.Background(), "", models.CreateMovieRequest{Title: "X", Year: 1})
	assert.ErrorIs(t, err, catalog.ErrInvalidMovie)
}

func TestMovieService_UpdateMovie(t *testing.T) {
	repo := &fakeMovieRepo{unique: true, movies: []models.Movie{{ID: "123", Title: "Oppenheimer", Genre: "Drama", Year: 2023}}}
	audit := &fakeAudit{}
	svc := NewMovieService(repo, audit, nil)

	movie, err := svc.UpdateMovie(context.Background(), "user-1", "123", models.UpdateMovieRequest{Title: "Oppenheimer", Genre: "Biography", Year: 2023})

	require.NoError(t, err)
	assert.Equal(t, "Biography", movie.Genre)
	assert.Equal(t, []string{"123"}, repo.checked, "the edited movie is excluded from the title check")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionMovieUpdate, audit.entries[0].Action)
	assert.Equal(t, "Oppenheimer", audit.entries[0].Details["previous_title"])
}

func TestMovieService_UpdateMovieNotFound(t *testing.T) {
	repo := &fakeMovieRepo{unique: true}
	svc := NewMovieService(repo, nil, nil)

	_, err := svc.UpdateMovie(context.Background(), "", "missing", models.UpdateMovieRequest{Title: "X", Genre: "Y", Year: 1})

	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.Empty(t, repo.checked)
}

func TestMovieService_DeleteMovie(t *testing.T) {
	repo := &fakeMovieRepo{movies: []models.Movie{{ID: "123", Title: "Oppenheimer"}}}
	audit := &fakeAudit{err: errors.New("queue down")}
	svc := NewMovieService(repo, audit, nil)

	require.NoError(t, svc.DeleteMovie(context.Background(), "user-1", "123"), "audit failures do not fail the delete")
	assert.Equal(t, []string{"123"}, repo.deleted)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionMovieDelete, audit.entries[0].Action)

	assert.ErrorIs(t, svc.DeleteMovie(context.Background(), "user-1", "456"), ErrMovieNotFound)
}

func TestMovieService_GetAndList(t *testing.T) {
	repo := &fakeMovieRepo{movies: []models.Movie{{ID: "a"}, {ID: "b"}}}
	svc := NewMovieService(repo, nil, nil)

	assert.Len(t, svc.ListMovies(context.Background()), 2)
	movie, err := svc.GetMovie(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", movie.ID)
}
