package models

// CreateMovieRequest represents the request body for adding a movie to the catalog.
// Field rules (non-empty title and genre, positive year) are enforced by the
// catalog repository, not by request binding, so every caller gets the same error.
type CreateMovieRequest struct {
	Title string `json:"title" yaml:"title"`
	Genre string `json:"genre" yaml:"genre"`
	Year  int    `json:"year" yaml:"year"`
}

// UpdateMovieRequest represents the request body for editing a movie.
// All three fields are replaced; the catalog has no partial updates.
type UpdateMovieRequest struct {
	Title string `json:"title"`
	Genre string `json:"genre"`
	Year  int    `json:"year"`
}
