package models

// ErrorResponse is the JSON body of every API error, including those written by middleware.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
