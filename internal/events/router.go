package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/huangang/evalstats/pkg/logger"
)

// Handler reacts to one event.
type Handler func(ctx context.Context, ev *Event) error

type routeKey struct {
	collection string
	kind       string
}

// Router dispatches events to the handlers registered for their
// (collection, kind) pair.
type Router struct {
	mu       sync.RWMutex
	handlers map[routeKey][]Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[routeKey][]Handler)}
}

// Handle registers h for events of kind on collection.
func (r *Router) Handle(collection, kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := routeKey{collection: collection, kind: kind}
	r.handlers[key] = append(r.handlers[key], h)
}

// Dispatch runs every matching handler. All handlers run even if one fails;
// their errors are joined.
func (r *Router) Dispatch(ctx context.Context, ev *Event) error {
	r.mu.RLock()
	hs := r.handlers[routeKey{collection: ev.Collection, kind: ev.Kind}]
	r.mu.RUnlock()

	if len(hs) == 0 {
		logger.Debug().Str("collection", ev.Collection).Str("kind", ev.Kind).
			Str("event_id", ev.ID).Msg("no handler for event")
		return nil
	}

	var errs []error
	for _, h := range hs {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s %s: %w", ev.Collection, ev.Kind, ev.DocID, err))
		}
	}
	return errors.Join(errs...)
}
