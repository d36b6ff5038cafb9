package models

// Movie is a single catalog entry.
// ID is assigned by the store when the movie is created and always equals the
// ID of the backing document. It is also written into the document as "id";
// when a document is decoded the document ID takes precedence.
type Movie struct {
	ID    string `json:"id" firestore:"id"`
	Title string `json:"title" firestore:"title"`
	Genre string `json:"genre" firestore:"genre"`
	Year  int    `json:"year" firestore:"year"`
}

// NewMovie returns a movie that has not been persisted yet (empty ID).
func NewMovie(title, genre string, year int) *Movie {
	return &Movie{Title: title, Genre: genre, Year: year}
}
