// Package worker runs the asteroid worker: it pulls operation batches from the world
// authority, fans them out to the feature systems and flushes what they produce.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/asteroidworker/internal/config"
	"github.com/zeusync/asteroidworker/internal/core/dispatch"
	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/outbox"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/resources"
	"github.com/zeusync/asteroidworker/internal/core/state"
	"github.com/zeusync/asteroidworker/internal/core/storage"
	"github.com/zeusync/asteroidworker/internal/core/systems"
	"github.com/zeusync/asteroidworker/internal/core/systems/extraction"
	"github.com/zeusync/asteroidworker/internal/core/systems/generation"
	"github.com/zeusync/asteroidworker/internal/core/systems/inventory"
	"github.com/zeusync/asteroidworker/pkg/concurrent"
)

type loop struct {
	system systems.System
	period time.Duration
}

// Worker represents one asteroid worker connected to the world authority
type Worker struct {
	config config.Config
	conn   protocol.Connection
	logger log.Log

	router   *dispatch.Router
	outbox   *outbox.Outbox
	detached *storage.Detached
	loops    []loop

	positions       *state.Cache[models.Position]
	identifications *state.Cache[models.Identification]
	inventory       *inventory.System

	disconnected atomic.Bool
	reason       atomic.Value // string
	running      atomic.Bool
}

type options struct {
	clock func() time.Time
	noise *resources.ProbabilityMap
}

// New wires the feature systems around conn and store. The logger is additionally
// mirrored to the authority at cfg.Log.RemoteLevel.
func New(cfg config.Config, conn protocol.Connection, store storage.DocumentStore, logger *log.Logger) *Worker {
	return newWorker(cfg, conn, store, logger, options{})
}

func newWorker(cfg config.Config, conn protocol.Connection, store storage.DocumentStore, logger *log.Logger, opts options) *Worker {
	if logger == nil {
		logger = log.Provide()
	}

	out := outbox.New()
	remote := logger.WithSink(out, cfg.Log.RemoteLevel)

	w := &Worker{
		config:          cfg,
		conn:            conn,
		logger:          remote.Named("Worker"),
		outbox:          out,
		detached:        storage.NewDetached(store, cfg.Store.Timeout, remote),
		positions:       state.NewCache[models.Position](),
		identifications: state.NewCache[models.Identification](),
	}

	noise := resources.DefaultProbabilityMap(cfg.Noise.Seed)
	if opts.noise != nil {
		noise = *opts.noise
	}

	w.inventory = inventory.New(out, remote)
	gen := generation.New(generation.Config{
		Collection: cfg.Collections.Asteroids,
		Map:        noise,
		Clock:      opts.clock,
	}, w.positions, w.identifications, w.inventory, out, w.detached, remote)
	ext := extraction.New(extraction.Config{
		Collection: cfg.Collections.Asteroids,
	}, w.identifications, w.inventory, out, w.detached, remote)

	w.loops = []loop{
		{system: w.inventory, period: cfg.Systems.Inventory},
		{system: gen, period: cfg.Systems.Generation},
		{system: ext, period: cfg.Systems.Extraction},
	}

	// entity state shared by the systems
	entities := dispatch.NewDispatcher("Entities", remote)
	state.Track(w.positions, entities, models.ComponentPosition)
	state.Track(w.identifications, entities, models.ComponentIdentification)

	connection := dispatch.NewDispatcher("Connection", remote)
	connection.OnDisconnect(func(op protocol.DisconnectOp) {
		w.reason.Store(op.Reason)
		w.disconnected.Store(true)
	})

	w.router = dispatch.NewRouter(entities, connection)
	for _, l := range w.loops {
		w.router.Add(l.system.Dispatcher())
	}
	return w
}

// Run connects the systems to the authority and blocks until the connection is lost
// or ctx is done. A lost connection is reported as ErrDisconnected.
func (w *Worker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrWorkerAlreadyRunning
	}
	start := time.Now()

	loopCtx, stopLoops := context.WithCancel(ctx)
	var loops sync.WaitGroup
	defer func() {
		stopLoops()
		loops.Wait()
		concurrent.ParallelMust(func() { _ = w.conn.Close() }, w.detached.Wait)
	}()

	if err := w.conn.Send(protocol.Hello{WorkerID: w.config.Worker.ID, WorkerType: w.config.Worker.Type}); err != nil {
		return fmt.Errorf("%w: hello: %w", ErrDisconnected, err)
	}

	for _, l := range w.loops {
		loops.Add(1)
		go func(l loop) {
			defer loops.Done()
			systems.Run(loopCtx, l.system, l.period, w.logger)
		}(l)
	}

	initTime := time.Since(start)
	w.outbox.Emit(log.LevelInfo, "Initialization", fmt.Sprintf("Init Time %dms", initTime.Milliseconds()))
	w.logger.Info("Worker started",
		log.String("worker_id", w.config.Worker.ID),
		log.Duration("init_time", initTime))

	for {
		ops, err := w.conn.GetOpList(ctx, w.config.Worker.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrDisconnected, err)
		}

		if err := w.router.Route(ctx, ops); err != nil {
			return err
		}

		if _, err := w.outbox.Flush(w.conn); err != nil {
			w.logger.Error("Flush failed", log.Error(err))
			return fmt.Errorf("%w: %w", ErrDisconnected, err)
		}

		if w.disconnected.Load() {
			reason, _ := w.reason.Load().(string)
			w.logger.Warn("Disconnected by authority", log.String("reason", reason))
			return fmt.Errorf("%w: %s", ErrDisconnected, reason)
		}
	}
}

// IsDisconnect reports whether err ended Run because the authority went away.
func IsDisconnect(err error) bool {
	return errors.Is(err, ErrDisconnected)
}
