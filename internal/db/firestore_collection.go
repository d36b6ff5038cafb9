package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// FirestoreCollection implements Collection on top of a Firestore collection reference.
type FirestoreCollection struct {
	col *firestore.CollectionRef
}

// NewFirestoreCollection returns a Collection for the named top-level collection.
func NewFirestoreCollection(client *firestore.Client, name string) (*FirestoreCollection, error) {
	if client == nil {
		return nil, fmt.Errorf("NewFirestoreCollection: Firestore client is not initialized")
	}
	if name == "" {
		name = MoviesCollection
	}
	col := client.Collection(name)
	if col == nil {
		return nil, fmt.Errorf("NewFirestoreCollection: invalid collection name %q", name)
	}
	return &FirestoreCollection{col: col}, nil
}

// NewDocID returns the auto-generated ID of a new document reference.
// Nothing is written until Set is called with that ID.
func (c *FirestoreCollection) NewDocID() string {
	return c.col.NewDoc().ID
}

func (c *FirestoreCollection) ResolveID(id string) string {
	if id == "" {
		return ""
	}
	ref := c.col.Doc(id)
	if ref == nil {
		return ""
	}
	return ref.ID
}

func (c *FirestoreCollection) doc(id string) (*firestore.DocumentRef, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	ref := c.col.Doc(id)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	return ref, nil
}

// Set replaces the whole document (no MergeAll).
func (c *FirestoreCollection) Set(ctx context.Context, id string, data interface{}) error {
	ref, err := c.doc(id)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set document '%s' in collection '%s': %w", id, c.col.ID, err)
	}
	return nil
}

func (c *FirestoreCollection) Delete(ctx context.Context, id string) error {
	ref, err := c.doc(id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document '%s' from collection '%s': %w", id, c.col.ID, err)
	}
	return nil
}

func (c *FirestoreCollection) WhereEqual(ctx context.Context, field string, value interface{}) ([]Document, error) {
	iter := c.col.Where(field, "==", value).Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query collection '%s' where %s == %v: %w", c.col.ID, field, value, err)
		}
		docs = append(docs, firestoreDocument{snap: snap})
	}
	return docs, nil
}

func (c *FirestoreCollection) Snapshots(ctx context.Context) SnapshotIterator {
	return &firestoreSnapshotIterator{iter: c.col.Snapshots(ctx)}
}

type firestoreDocument struct {
	snap *firestore.DocumentSnapshot
}

func (d firestoreDocument) ID() string { return d.snap.Ref.ID }

func (d firestoreDocument) DataTo(p interface{}) error { return d.snap.DataTo(p) }

type firestoreSnapshotIterator struct {
	iter *firestore.QuerySnapshotIterator
}

func (it *firestoreSnapshotIterator) Next() (*Snapshot, error) {
	qs, err := it.iter.Next()
	if err != nil {
		return nil, err
	}
	snaps, err := qs.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot documents: %w", err)
	}
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, firestoreDocument{snap: snap})
	}
	return &Snapshot{Documents: docs, ReadTime: qs.ReadTime}, nil
}

func (it *firestoreSnapshotIterator) Stop() {
	it.iter.Stop()
}
