package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/moviecatalog/internal/core"
	"github.com/example/moviecatalog/internal/middleware"
)

// SetupRoutes registers the movie routes under /api/v1 and the public health check.
// Global middleware (logging, recovery, CORS) is expected on router already.
// When authMW is nil the write routes are left unauthenticated.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	movieService core.MovieService,
	source SnapshotSource,
	authMW *middleware.AuthMiddleware,
) {
	if logger == nil {
		logger = zap.NewNop()
	}
	movieHandler := NewMovieHandler(movieService, source, logger)

	var writeGuards []gin.HandlerFunc
	if authMW != nil {
		writeGuards = append(writeGuards, authMW.VerifyToken())
	} else {
		logger.Warn("Authentication is disabled: movie write routes are open.")
	}
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeGuards...), h)
	}

	apiV1 := router.Group("/api/v1")
	{
		movies := apiV1.Group("/movies")
		{
			movies.GET("", movieHandler.ListMovies)
			movies.GET("/check-title", movieHandler.CheckTitle)
			movies.GET("/stream", movieHandler.StreamMovies)
			movies.GET("/:movieId", movieHandler.GetMovie)
			movies.POST("", guarded(movieHandler.CreateMovie)...)
			movies.PUT("/:movieId", guarded(movieHandler.UpdateMovie)...)
			movies.DELETE("/:movieId", guarded(movieHandler.DeleteMovie)...)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1 and /health.")
}
