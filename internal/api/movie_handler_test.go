package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/moviecatalog/internal/catalog"
	"github.com/example/moviecatalog/internal/core"
	"github.com/example/moviecatalog/internal/db"
	"github.com/example/moviecatalog/internal/middleware"
	"github.com/example/moviecatalog/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repo   *catalog.Repository
}

func newTestServer(t *testing.T, col db.Collection, authMW *middleware.AuthMiddleware) *testServer {
	t.Helper()
	repo := catalog.NewRepository(col, nil)
	svc := core.NewMovieService(repo, core.NewAuditService(nil, "", nil), nil)

	// Keep the cache live the way cmd/server does.
	sub := repo.Subscribe(context.Background())
	go func() {
		for range sub.Events() {
		}
	}()
	t.Cleanup(sub.Stop)

	router := gin.New()
	SetupRoutes(router, nil, svc, repo, authMW)
	return &testServer{router: router, repo: repo}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) waitForCache(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.repo.Movies()) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestMovieRoutes_CRUD(t *testing.T) {
	s := newTestServer(t, db.NewMemoryCollection(), nil)

	w := s.do(http.MethodPost, "/api/v1/movies", models.CreateMovieRequest{Title: "Oppenheimer", Genre: "Drama", Year: 2023})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Movie
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	s.waitForCache(t, 1)

	w = s.do(http.MethodGet, "/api/v1/movies/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/movies", models.CreateMovieRequest{Title: "Oppenheimer", Genre: "Biography", Year: 2023})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, "/api/v1/movies/"+created.ID, models.UpdateMovieRequest{Title: "Oppenheimer", Genre: "Biography", Year: 2023})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Eventually(t, func() bool {
		m, ok := s.repo.Find(created.ID)
		return ok && m.Genre == "Biography"
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(http.MethodPut, "/api/v1/movies/"+created.ID, models.UpdateMovieRequest{Title: "Oppenheimer", Genre: "Biography", Year: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/movies/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	s.waitForCache(t, 0)

	w = s.do(http.MethodDelete, "/api/v1/movies/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMovieRoutes_CreateInvalid(t *testing.T) {
	s := newTestServer(t, db.NewMemoryCollection(), nil)

	w := s.do(http.MethodPost, "/api/v1/movies", models.CreateMovieRequest{Title: "Oppenheimer", Year: 2023})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "genre is empty")
}

func TestMovieRoutes_CheckTitle(t *testing.T) {
	col := db.NewMemoryCollection()
	require.NoError(t, col.Set(context.Background(), "123", &models.Movie{ID: "123", Title: "Oppenheimer", Genre: "Drama", Year: 2023}))
	s := newTestServer(t, col, nil)

	w := s.do(http.MethodGet, "/api/v1/movies/check-title", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp TitleCheckResponse
	w = s.do(http.MethodGet, "/api/v1/movies/check-title?title=Oppenheimer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Unique)

	w = s.do(http.MethodGet, "/api/v1/movies/check-title?title=Oppenheimer&excludeId=123", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Unique)
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "user-1"}, nil
}

func TestMovieRoutes_WritesRequireAuth(t *testing.T) {
	s := newTestServer(t, db.NewMemoryCollection(), middleware.NewAuthMiddleware(fakeVerifier{}, nil))

	w := s.do(http.MethodPost, "/api/v1/movies", models.CreateMovieRequest{Title: "Alien", Genre: "Horror", Year: 1979})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/movies", nil)
	assert.Equal(t, http.StatusOK, w.Code, "reads stay public")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/movies", strings.NewReader(`{"title":"Alien","genre":"Horror","year":1979}`))
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

type errMovieService struct {
	core.MovieService
	err error
}

func (s errMovieService) GetMovie(context.Context, string) (*models.Movie, error) { return nil, s.err }

func TestMapMovieErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &catalog.ValidationError{Reasons: []string{"title is empty"}}, http.StatusBadRequest},
		{"not found", core.ErrMovieNotFound, http.StatusNotFound},
		{"duplicate", core.ErrDuplicateTitle, http.StatusConflict},
		{"remote", &catalog.RemoteError{Op: "create movie", Err: errors.New("unavailable")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			SetupRoutes(router, nil, errMovieService{err: tt.err}, nil, nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/movies/x", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// scriptedCollection replays a fixed list of listener results.
type scriptedCollection struct {
	*db.MemoryCollection
	results []scriptedResult
}

type scriptedResult struct {
	snap *db.Snapshot
	err  error
}

type scriptedIterator struct {
	results []scriptedResult
}

func (it *scriptedIterator) Next() (*db.Snapshot, error) {
	if len(it.results) == 0 {
		return nil, db.ErrIteratorStopped
	}
	r := it.results[0]
	it.results = it.results[1:]
	return r.snap, r.err
}

func (it *scriptedIterator) Stop() {}

func (c *scriptedCollection) Snapshots(context.Context) db.SnapshotIterator {
	return &scriptedIterator{results: c.results}
}

// streamRecorder adds the CloseNotifier gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamMovies(t *testing.T) {
	col := &scriptedCollection{
		MemoryCollection: db.NewMemoryCollection(),
		results: []scriptedResult{
			{snap: &db.Snapshot{}},
			{err: errors.New("permission denied")},
		},
	}
	repo := catalog.NewRepository(col, nil)
	router := gin.New()
	SetupRoutes(router, nil, core.NewMovieService(repo, nil, nil), repo, nil)

	w := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/movies/stream", nil))

	body := w.Body.String()
	assert.Contains(t, body, "event:snapshot")
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, "permission denied")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"), w.Header().Get("Content-Type"))
}
