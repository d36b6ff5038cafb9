package api

// TitleCheckResponse is returned by GET /movies/check-title.
type TitleCheckResponse struct {
	Title  string `json:"title"`
	Unique bool   `json:"unique"`
}
