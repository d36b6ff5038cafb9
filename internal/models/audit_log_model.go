package models

import "time"

// Audit actions recorded for catalog mutations.
const (
	AuditActionMovieCreate = "MOVIE_CREATE"
	AuditActionMovieUpdate = "MOVIE_UPDATE"
	AuditActionMovieDelete = "MOVIE_DELETE"

	AuditTargetMovie = "MOVIE"
)

// AuditLog represents an audit trail event for a catalog mutation.
type AuditLog struct {
	Timestamp  time.Time              `json:"timestamp"`
	UserID     string                 `json:"userId,omitempty"` // Who performed the action, empty for unauthenticated callers
	Action     string                 `json:"action"`
	TargetType string                 `json:"targetType,omitempty"`
	TargetID   string                 `json:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}
