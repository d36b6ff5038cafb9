package db

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

// MemoryCollection is an in-process Collection. Documents are kept as field
// maps keyed by the `firestore` struct tags, and snapshots list documents
// ordered by ID, matching Firestore's default ordering.
type MemoryCollection struct {
	mu        sync.RWMutex
	docs      map[string]map[string]interface{}
	listeners map[*memorySnapshotIterator]struct{}
}

// NewMemoryCollection returns an empty MemoryCollection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{
		docs:      make(map[string]map[string]interface{}),
		listeners: make(map[*memorySnapshotIterator]struct{}),
	}
}

// NewDocID returns a random 20 character ID, the length Firestore uses for auto IDs.
func (c *MemoryCollection) NewDocID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func (c *MemoryCollection) ResolveID(id string) string {
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func (c *MemoryCollection) Set(ctx context.Context, id string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ResolveID(id) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	fields, err := toFields(data)
	if err != nil {
		return fmt.Errorf("failed to encode document '%s': %w", id, err)
	}

	c.mu.Lock()
	c.docs[id] = fields
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *MemoryCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ResolveID(id) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}

	c.mu.Lock()
	_, existed := c.docs[id]
	delete(c.docs, id)
	c.mu.Unlock()

	if existed {
		c.notify()
	}
	return nil
}

func (c *MemoryCollection) WhereEqual(ctx context.Context, field string, value interface{}) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []Document
	for _, doc := range c.snapshot().Documents {
		md := doc.(memoryDocument)
		if v, ok := md.fields[field]; ok && reflect.DeepEqual(v, value) {
			docs = append(docs, md)
		}
	}
	return docs, nil
}

func (c *MemoryCollection) Snapshots(ctx context.Context) SnapshotIterator {
	it := &memorySnapshotIterator{
		col:     c,
		ctx:     ctx,
		changed: make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	// The current state is pending for the first Next.
	it.changed <- struct{}{}

	c.mu.Lock()
	c.listeners[it] = struct{}{}
	c.mu.Unlock()
	return it
}

// Len returns the number of stored documents.
func (c *MemoryCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *MemoryCollection) snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		fields := make(map[string]interface{}, len(c.docs[id]))
		for k, v := range c.docs[id] {
			fields[k] = v
		}
		docs = append(docs, memoryDocument{id: id, fields: fields})
	}
	return &Snapshot{Documents: docs, ReadTime: time.Now()}
}

// notify wakes every listener. A listener that has not consumed the previous
// wake-up keeps a single pending one: it will read the latest state anyway.
func (c *MemoryCollection) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for it := range c.listeners {
		select {
		case it.changed <- struct{}{}:
		default:
		}
	}
}

func (c *MemoryCollection) removeListener(it *memorySnapshotIterator) {
	c.mu.Lock()
	delete(c.listeners, it)
	c.mu.Unlock()
}

func toFields(data interface{}) (map[string]interface{}, error) {
	if m, ok := data.(map[string]interface{}); ok {
		fields := make(map[string]interface{}, len(m))
		for k, v := range m {
			fields[k] = v
		}
		return fields, nil
	}
	if v := reflect.ValueOf(data); v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("nil document data")
		}
		data = v.Elem().Interface()
	}
	fields := make(map[string]interface{})
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "firestore",
		Result:  &fields,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(data); err != nil {
		return nil, err
	}
	return fields, nil
}

type memoryDocument struct {
	id     string
	fields map[string]interface{}
}

func (d memoryDocument) ID() string { return d.id }

func (d memoryDocument) DataTo(p interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "firestore",
		Result:  p,
	})
	if err != nil {
		return err
	}
	return dec.Decode(d.fields)
}

type memorySnapshotIterator struct {
	col      *MemoryCollection
	ctx      context.Context
	changed  chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func (it *memorySnapshotIterator) Next() (*Snapshot, error) {
	select {
	case <-it.stopped:
		return nil, ErrIteratorStopped
	default:
	}
	select {
	case <-it.changed:
		return it.col.snapshot(), nil
	case <-it.ctx.Done():
		it.Stop()
		return nil, it.ctx.Err()
	case <-it.stopped:
		return nil, ErrIteratorStopped
	}
}

func (it *memorySnapshotIterator) Stop() {
	it.stopOnce.Do(func() {
		close(it.stopped)
		it.col.removeListener(it)
	})
}
