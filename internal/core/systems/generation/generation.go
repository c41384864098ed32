// Package generation answers GenerateResource requests: it decides whether an
// asteroid holds a resource and, the first time it does, registers the asteroid
// for persistence and creates its inventory slot.
package generation

import (
	"context"
	"time"

	"github.com/zeusync/asteroidworker/internal/core/dispatch"
	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/outbox"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/resources"
	"github.com/zeusync/asteroidworker/internal/core/state"
	"github.com/zeusync/asteroidworker/internal/core/storage"
	"github.com/zeusync/asteroidworker/internal/core/systems"
	"github.com/zeusync/asteroidworker/internal/core/systems/inventory"
	"github.com/zeusync/asteroidworker/pkg/sequence"
)

const Name = "Generation"

// resource slot every asteroid keeps its resource in
const slot = 0

var _ systems.System = (*System)(nil)

type request struct {
	op      protocol.CommandRequestOp
	request models.GenerateResourceRequest
}

type Config struct {
	// Collection receives one document per asteroid that was found to hold a resource.
	Collection string
	Map        resources.ProbabilityMap
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type System struct {
	dispatcher      *dispatch.Dispatcher
	positions       *state.Cache[models.Position]
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
	positions *state.Cache[models.Position],
	identifications *state.Cache[models.Identification],
	inv *inventory.System,
	out *outbox.Outbox,
	store *storage.Detached,
	logger log.Log,
) *System {
	if logger == nil {
		logger = log.Provide()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	s := &System{
		dispatcher:      dispatch.NewDispatcher(Name, logger),
		positions:       positions,
		identifications: identifications,
		inventory:       inv,
		outbox:          out,
		store:           store,
		config:          config,
		logger:          logger.Named(Name),
		requests:        sequence.NewQueue[request](),
	}

	dispatch.OnCommand(s.dispatcher, models.CommandGenerateResource, func(op protocol.CommandRequestOp, req models.GenerateResourceRequest) {
		s.requests.Enqueue(request{op: op, request: req})
	})
	return s
}

func (s *System) Name() string                     { return Name }
func (s *System) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

// Update answers every request received since the previous tick.
func (s *System) Update(context.Context) {
	for _, r := range s.requests.Drain() {
		response := s.generate(r.op.EntityID, r.request)
		if err := s.outbox.Respond(r.op.EntityID, r.op.RequestID, models.CommandGenerateResource, response); err != nil {
			s.logger.Error("Failed to queue response", log.Error(err))
		}
	}
}

func (s *System) generate(id models.EntityID, req models.GenerateResourceRequest) models.ResourceResponse {
	if info, ok := s.inventory.TryGetResourceInfo(id, slot); ok {
		return models.ResourceResponse{DatabaseID: info.DatabaseID, Type: info.Type, Quantity: info.Quantity}
	}

	// identified but without a slot: already generated and mined out
	if _, ok := s.identifications.Get(id); ok {
		s.logger.Debug("Asteroid already depleted", log.Int64("entity", int64(id)))
		return models.ResourceResponse{}
	}

	position, ok := s.positions.Get(id)
	if !ok {
		s.logger.Debug("No position for entity", log.Int64("entity", int64(id)))
		return models.ResourceResponse{}
	}

	scanner := req.Scanner
	if !scanner.Speciality.Valid() {
		s.logger.Warn("Invalid scanner speciality",
			log.Int64("entity", int64(id)),
			log.Int("speciality", int(scanner.Speciality)))
		return models.ResourceResponse{}
	}

	bucket := resources.TimeBucket(s.config.Clock())
	probability := s.config.Map.Evaluate(position.Coords, bucket)

	gen := resources.NewGenerator(resources.Seed(id, req.UserDatabaseID))
	quantity := resources.Yield(probability, gen, scanner)
	if quantity <= 0 {
		return models.ResourceResponse{}
	}

	resourceType := scanner.Speciality
	if resourceType == models.ResourceRandom {
		resourceType = gen.RandomResourceType()
	}

	resourceID := gen.DocumentID()
	asteroidID := gen.DocumentID()

	s.outbox.AddPersistence(id)

	identification := models.Identification{EntityDatabaseID: asteroidID}
	s.identifications.OnAdd(id, identification)
	s.outbox.AddIdentification(id, identification)

	info := models.ResourceInfo{DatabaseID: resourceID, Type: resourceType, Quantity: quantity}
	s.inventory.QueueAdd(id, slot, info)

	coords := position.Coords
	s.store.Create(s.config.Collection, asteroidID, storage.Fields{
		"coords":   []float64{coords.X, coords.Y, coords.Z},
		"resource": resourceID,
	})

	return models.ResourceResponse{DatabaseID: resourceID, Type: resourceType, Quantity: quantity}
}
