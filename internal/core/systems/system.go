// Package systems holds the per-feature processors and the fixed-rate loop they run on.
package systems

import (
	"context"
	"time"

	"github.com/zeusync/asteroidworker/internal/core/dispatch"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
)

// System is one feature of the worker. It subscribes to inbound operations through its
// dispatcher, queues work from handlers and consumes that work in Update.
type System interface {
	Name() string

	// Dispatcher receives every inbound batch from the router.
	Dispatcher() *dispatch.Dispatcher

	// Update consumes the work queued since the previous call.
	Update(ctx context.Context)
}

// RunFixedRate calls update every period until ctx is done. When an update takes
// longer than the period the next one starts immediately; missed ticks are neither
// replayed nor skipped.
func RunFixedRate(ctx context.Context, name string, period time.Duration, update func(context.Context), logger log.Log) {
	if logger == nil {
		logger = log.Provide()
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		update(ctx)
		elapsed := time.Since(start)

		wait := period - elapsed
		if wait < 0 {
			logger.Debug("System update overran its period",
				log.String("system", name),
				log.Duration("elapsed", elapsed),
				log.Duration("period", period))
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Run drives s at the given period. It blocks until ctx is done.
func Run(ctx context.Context, s System, period time.Duration, logger log.Log) {
	RunFixedRate(ctx, s.Name(), period, s.Update, logger)
}
