// Package extraction answers ExtractResource requests against an asteroid's
// inventory slot and removes asteroids that are mined out.
package extraction

import (
	"context"
	"math"

	"github.com/zeusync/asteroidworker/internal/core/dispatch"
	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/outbox"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/state"
	"github.com/zeusync/asteroidworker/internal/core/storage"
	"github.com/zeusync/asteroidworker/internal/core/systems"
	"github.com/zeusync/asteroidworker/internal/core/systems/inventory"
	"github.com/zeusync/asteroidworker/pkg/sequence"
)

const Name = "Extraction"

const slot = 0

var _ systems.System = (*System)(nil)

type request struct {
	op      protocol.CommandRequestOp
	request models.ExtractResourceRequest
}

type Config struct {
	// Collection holds the asteroid documents deleted on depletion.
	Collection string
}

type System struct {
	dispatcher      *dispatch.Dispatcher
	identifications *state.Cache[models.Identification]
	inventory       *inventory.System
	outbox          *outbox.Outbox
	store           *storage.Detached
	config          Config
	logger          log.Log

	requests *sequence.Queue[request]
}

func New(
	config Config,
	identifications *state.Cache[models.Identification],
	inv *inventory.System,
	out *outbox.Outbox,
	store *storage.Detached,
	logger log.Log,
) *System {
	if logger == nil {
		logger = log.Provide()
	}

	s := &System{
		dispatcher:      dispatch.NewDispatcher(Name, logger),
		identifications: identifications,
		inventory:       inv,
		outbox:          out,
		store:           store,
		config:          config,
		logger:          logger.Named(Name),
		requests:        sequence.NewQueue[request](),
	}

	dispatch.OnCommand(s.dispatcher, models.CommandExtractResource, func(op protocol.CommandRequestOp, req models.ExtractResourceRequest) {
		s.requests.Enqueue(request{op: op, request: req})
	})
	return s
}

func (s *System) Name() string                     { return Name }
func (s *System) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

func (s *System) Update(context.Context) {
	for _, r := range s.requests.Drain() {
		response := s.extract(r.op.EntityID, r.request.ExtractRate)
		if err := s.outbox.Respond(r.op.EntityID, r.op.RequestID, models.CommandExtractResource, response); err != nil {
			s.logger.Error("Failed to queue response", log.Error(err))
		}
	}
}

// Amount resolves a sign-encoded extraction rate against the current quantity.
// A rate >= 0 is a flat amount; a negative rate -n takes round(quantity/n).
func Amount(rate, quantity int) int {
	if rate >= 0 {
		return rate
	}
	return int(math.Round(-1 / float64(rate) * float64(quantity)))
}

func (s *System) extract(id models.EntityID, rate int) models.ResourceResponse {
	info, ok := s.inventory.TryGetResourceInfo(id, slot)
	if !ok {
		return models.ResourceResponse{}
	}

	// info.Quantity already accounts for extractions queued earlier in this tick
	amount := Amount(rate, info.Quantity)
	extracted := min(amount, info.Quantity)

	s.inventory.QueueDelta(id, slot, -extracted)

	if info.Quantity <= amount {
		s.outbox.DeleteEntity(id)

		if identification, ok := s.identifications.Get(id); ok {
			s.store.Delete(s.config.Collection, identification.EntityDatabaseID)
		} else {
			s.logger.Warn("Depleted asteroid has no identification, document kept",
				log.Int64("entity", int64(id)))
		}
	}

	return models.ResourceResponse{DatabaseID: info.DatabaseID, Type: info.Type, Quantity: extracted}
}
