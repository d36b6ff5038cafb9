package catalog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/moviecatalog/internal/db"
	"github.com/example/moviecatalog/internal/models"
)

// Event is one notification of a Subscription: either the full list of movies
// after a remote change, or the error that ended the listener.
type Event struct {
	Movies []models.Movie
	Err    error
}

// Subscription is a live listener on the movie collection.
type Subscription struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Events returns the event sequence. The channel is closed when the
// subscription is stopped, its context is cancelled, or after an error event.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Stop cancels the listener and waits for it to shut down. It is safe to call
// more than once.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// Subscribe installs a new listener on the collection. Every snapshot replaces
// the repository cache before the matching event is delivered; a listener
// error leaves the cache as it was and ends the subscription.
// Each call installs its own listener; callers that only need one should call
// Subscribe once and share the result.
func (r *Repository) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	iter := r.col.Snapshots(ctx)

	go func() {
		defer close(sub.done)
		defer close(sub.events)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil || isCancellation(err) {
					r.logger.Debug("Movie listener stopped")
					return
				}
				r.logger.Error("Movie listener failed", zap.Error(err))
				r.deliver(ctx, sub, Event{Err: &RemoteError{Op: "listen for movie updates", Err: err}})
				return
			}
			movies := r.replaceCache(snap)
			if !r.deliver(ctx, sub, Event{Movies: movies}) {
				return
			}
		}
	}()
	return sub
}

func (r *Repository) deliver(ctx context.Context, sub *Subscription, ev Event) bool {
	select {
	case sub.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, db.ErrIteratorStopped) ||
		status.Code(err) == codes.Canceled
}
