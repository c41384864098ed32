package dispatch

import (
	"context"

	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/pkg/concurrent"
)

// Router fans every batch out to all registered dispatchers.
type Router struct {
	dispatchers []*Dispatcher
}

func NewRouter(dispatchers ...*Dispatcher) *Router {
	return &Router{dispatchers: dispatchers}
}

// Add registers another dispatcher. Must not be called concurrently with Route.
func (r *Router) Add(d *Dispatcher) {
	r.dispatchers = append(r.dispatchers, d)
}

// Route hands the same batch to every dispatcher concurrently and returns once all of
// them processed it. The batch is treated as read-only.
func (r *Router) Route(ctx context.Context, ops protocol.OpList) error {
	if len(ops) == 0 || len(r.dispatchers) == 0 {
		return nil
	}

	actions := make([]func(context.Context) error, len(r.dispatchers))
	for i, d := range r.dispatchers {
		actions[i] = func(context.Context) error {
			d.Process(ops)
			return nil
		}
	}
	return concurrent.Invoke(ctx, actions...)
}
