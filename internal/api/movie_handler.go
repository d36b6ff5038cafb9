package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/catalog"
	"github.com/example/moviecatalog/internal/core"
	"github.com/example/moviecatalog/internal/middleware"
	"github.com/example/moviecatalog/internal/models"
)

// SnapshotSource opens live subscriptions on the catalog.
type SnapshotSource interface {
	Subscribe(ctx context.Context) *catalog.Subscription
}

// MovieHandler handles API endpoints related to movies.
type MovieHandler struct {
	movieService core.MovieService
	source       SnapshotSource
	logger       *zap.Logger
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(ms core.MovieService, source SnapshotSource, logger *zap.Logger) *MovieHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovieHandler{movieService: ms, source: source, logger: logger}
}

// mapMovieErrorToStatus maps catalog and service errors to HTTP status codes and ErrorResponse.
func (h *MovieHandler) mapMovieErrorToStatus(c *gin.Context, err error) {
	var validationErr *catalog.ValidationError
	var remoteErr *catalog.RemoteError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid movie", Details: validationErr.Error()})
	case errors.Is(err, core.ErrMovieNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: core.ErrMovieNotFound.Error()})
	case errors.Is(err, core.ErrDuplicateTitle):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: core.ErrDuplicateTitle.Error(), Details: err.Error()})
	case errors.As(err, &remoteErr):
		h.logger.Error("Document store error", zap.Error(err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "Document store request failed", Details: remoteErr.Error()})
	default:
		h.logger.Error("Internal Server Error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// ListMovies handles GET /movies. It serves the live cache.
func (h *MovieHandler) ListMovies(c *gin.Context) {
	c.JSON(http.StatusOK, h.movieService.ListMovies(c.Request.Context()))
}

// GetMovie handles GET /movies/:movieId
func (h *MovieHandler) GetMovie(c *gin.Context) {
	movie, err := h.movieService.GetMovie(c.Request.Context(), c.Param("movieId"))
	if err != nil {
		h.mapMovieErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// CreateMovie handles POST /movies
func (h *MovieHandler) CreateMovie(c *gin.Context) {
	var req models.CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	movie, err := h.movieService.CreateMovie(c.Request.Context(), c.GetString(middleware.ContextUserIDKey), req)
	if err != nil {
		h.mapMovieErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, movie)
}

// UpdateMovie handles PUT /movies/:movieId
func (h *MovieHandler) UpdateMovie(c *gin.Context) {
	var req models.UpdateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	movie, err := h.movieService.UpdateMovie(c.Request.Context(), c.GetString(middleware.ContextUserIDKey), c.Param("movieId"), req)
	if err != nil {
		h.mapMovieErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// DeleteMovie handles DELETE /movies/:movieId
func (h *MovieHandler) DeleteMovie(c *gin.Context) {
	err := h.movieService.DeleteMovie(c.Request.Context(), c.GetString(middleware.ContextUserIDKey), c.Param("movieId"))
	if err != nil {
		h.mapMovieErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckTitle handles GET /movies/check-title?title=...&excludeId=...
func (h *MovieHandler) CheckTitle(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "title query parameter is required"})
		return
	}

	unique, err := h.movieService.CheckTitle(c.Request.Context(), title, c.Query("excludeId"))
	if err != nil {
		h.mapMovieErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, TitleCheckResponse{Title: title, Unique: unique})
}

// StreamMovies handles GET /movies/stream as Server-Sent Events: a "snapshot"
// event with the full movie list on every change, and a final "error" event if
// the listener fails.
func (h *MovieHandler) StreamMovies(c *gin.Context) {
	sub := h.source.Subscribe(c.Request.Context())
	defer sub.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-sub.Events()
		if !ok {
			return false
		}
		if ev.Err != nil {
			c.SSEvent("error", models.ErrorResponse{Error: "Movie listener failed", Details: ev.Err.Error()})
			return false
		}
		c.SSEvent("snapshot", ev.Movies)
		return true
	})
}
