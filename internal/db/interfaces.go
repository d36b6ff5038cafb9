package db

import (
	"context"
	"errors"
	"time"
)

// MoviesCollection is the default name of the catalog collection.
const MoviesCollection = "movies"

var (
	// ErrInvalidDocumentID is returned when an ID cannot address a document
	// (empty, or containing a path separator).
	ErrInvalidDocumentID = errors.New("invalid document ID")
	// ErrIteratorStopped is returned by SnapshotIterator.Next after Stop.
	ErrIteratorStopped = errors.New("snapshot iterator stopped")
)

// Document is a single stored document, as returned by a query or a snapshot.
type Document interface {
	ID() string
	// DataTo decodes the document fields into p, a pointer to a struct
	// tagged with `firestore` field names.
	DataTo(p interface{}) error
}

// Snapshot is a full point-in-time listing of the documents in a collection.
type Snapshot struct {
	Documents []Document
	ReadTime  time.Time
}

// SnapshotIterator delivers one Snapshot per change of the collection.
// The first call to Next returns the current state.
type SnapshotIterator interface {
	// Next blocks until the next snapshot is available or the listener fails.
	// Once Next returns an error, every later call returns an error too.
	Next() (*Snapshot, error)
	Stop()
}

// Collection is the document collection the catalog is stored in.
type Collection interface {
	// NewDocID allocates an ID for a document that does not exist yet.
	NewDocID() string
	// ResolveID returns the ID of the document reference for id, or "" if id
	// cannot address a document.
	ResolveID(id string) string
	// Set writes data as the full content of document id, replacing any existing fields.
	Set(ctx context.Context, id string, data interface{}) error
	// Delete removes document id. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error
	// WhereEqual runs a one-shot query for documents whose field equals value.
	WhereEqual(ctx context.Context, field string, value interface{}) ([]Document, error)
	// Snapshots installs a live listener on the whole collection.
	Snapshots(ctx context.Context) SnapshotIterator
}
