// Package inventory owns the worker's view of ResourceInventory components.
//
// Other systems read slots with TryGetResourceInfo and change them only by queueing
// adds and quantity deltas; Update applies the queue in order and reports every
// applied change to the authority.
package inventory

import (
	"context"
	"sync"

	"github.com/zeusync/asteroidworker/internal/core/dispatch"
	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/outbox"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/systems"
	"github.com/zeusync/asteroidworker/pkg/sequence"
)

const Name = "Inventory"

var _ systems.System = (*System)(nil)

type change struct {
	entity models.EntityID
	slot   int
	added  *models.ResourceInfo
	delta  int
}

type System struct {
	dispatcher *dispatch.Dispatcher
	outbox     *outbox.Outbox
	logger     log.Log

	mu          sync.RWMutex
	inventories map[models.EntityID]models.ResourceInventory
	// adds and quantity deltas queued but not applied yet, both visible to TryGetResourceInfo
	pending map[models.EntityID]map[int]models.ResourceInfo
	deltas  map[models.EntityID]map[int]int

	changes *sequence.Queue[change]
}

func New(out *outbox.Outbox, logger log.Log) *System {
	if logger == nil {
		logger = log.Provide()
	}
	s := &System{
		dispatcher:  dispatch.NewDispatcher(Name, logger),
		outbox:      out,
		logger:      logger.Named(Name),
		inventories: make(map[models.EntityID]models.ResourceInventory),
		pending:     make(map[models.EntityID]map[int]models.ResourceInfo),
		deltas:      make(map[models.EntityID]map[int]int),
		changes:     sequence.NewQueue[change](),
	}

	dispatch.OnAdd(s.dispatcher, models.ComponentResourceInventory, s.onInventoryAdded)
	s.dispatcher.OnRemoveComponent(models.ComponentResourceInventory, s.onInventoryRemoved)
	return s
}

func (s *System) Name() string                     { return Name }
func (s *System) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

func (s *System) onInventoryAdded(id models.EntityID, inventory models.ResourceInventory) {
	s.mu.Lock()
	s.inventories[id] = inventory.Clone()
	s.mu.Unlock()
}

func (s *System) onInventoryRemoved(op protocol.RemoveComponentOp) {
	s.mu.Lock()
	delete(s.inventories, op.EntityID)
	delete(s.pending, op.EntityID)
	delete(s.deltas, op.EntityID)
	s.mu.Unlock()
}

// TryGetResourceInfo returns the slot as it will be once every queued change is
// applied. A slot whose queued deltas take it to zero is reported as missing.
func (s *System) TryGetResourceInfo(id models.EntityID, slot int) (models.ResourceInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.inventories[id].Resources[slot]
	if !ok {
		if info, ok = s.pending[id][slot]; !ok {
			return models.ResourceInfo{}, false
		}
	}
	info.Quantity += s.deltas[id][slot]
	if info.Quantity <= 0 {
		return models.ResourceInfo{}, false
	}
	return info, true
}

// QueueAdd schedules a new slot. The slot is visible to TryGetResourceInfo at once.
func (s *System) QueueAdd(id models.EntityID, slot int, info models.ResourceInfo) {
	s.mu.Lock()
	slots, ok := s.pending[id]
	if !ok {
		slots = make(map[int]models.ResourceInfo)
		s.pending[id] = slots
	}
	slots[slot] = info
	s.mu.Unlock()

	s.changes.Enqueue(change{entity: id, slot: slot, added: &info})
}

// QueueDelta schedules a quantity change for an existing slot. The change is visible
// to TryGetResourceInfo at once.
func (s *System) QueueDelta(id models.EntityID, slot int, delta int) {
	s.mu.Lock()
	slots, ok := s.deltas[id]
	if !ok {
		slots = make(map[int]int)
		s.deltas[id] = slots
	}
	slots[slot] += delta
	s.mu.Unlock()

	s.changes.Enqueue(change{entity: id, slot: slot, delta: delta})
}

// settleDelta drops an applied (or discarded) delta from the queued view. Callers hold mu.
func (s *System) settleDelta(c change) {
	slots, ok := s.deltas[c.entity]
	if !ok {
		return
	}
	if slots[c.slot] -= c.delta; slots[c.slot] == 0 {
		delete(slots, c.slot)
	}
	if len(slots) == 0 {
		delete(s.deltas, c.entity)
	}
}

// Update applies every queued change in order.
func (s *System) Update(context.Context) {
	for _, c := range s.changes.Drain() {
		if c.added != nil {
			s.applyAdd(c)
		} else {
			s.applyDelta(c)
		}
	}
}

func (s *System) applyAdd(c change) {
	s.mu.Lock()
	inventory, existed := s.inventories[c.entity]
	if !existed {
		inventory = models.ResourceInventory{Resources: make(map[int]models.ResourceInfo)}
	}
	inventory.Resources[c.slot] = *c.added
	s.inventories[c.entity] = inventory

	if slots, ok := s.pending[c.entity]; ok {
		delete(slots, c.slot)
		if len(slots) == 0 {
			delete(s.pending, c.entity)
		}
	}

	var snapshot models.ResourceInventory
	if !existed {
		snapshot = inventory.Clone()
	}
	s.mu.Unlock()

	if !existed {
		s.outbox.AddResourceInventory(c.entity, snapshot)
		return
	}
	added := *c.added
	s.outbox.UpdateResourceInventory(c.entity, models.InventoryUpdate{Slot: c.slot, Added: &added})
}

func (s *System) applyDelta(c change) {
	s.mu.Lock()
	s.settleDelta(c)
	inventory, ok := s.inventories[c.entity]
	info, found := inventory.Resources[c.slot]
	if !ok || !found {
		s.mu.Unlock()
		s.logger.Debug("Dropping delta for missing slot",
			log.Int64("entity", int64(c.entity)),
			log.Int("slot", c.slot),
			log.Int("delta", c.delta))
		return
	}

	quantity := max(info.Quantity+c.delta, 0)
	applied := quantity - info.Quantity
	if quantity == 0 {
		delete(inventory.Resources, c.slot)
	} else {
		info.Quantity = quantity
		inventory.Resources[c.slot] = info
	}
	s.mu.Unlock()

	if applied == 0 {
		return
	}
	s.outbox.UpdateResourceInventory(c.entity, models.InventoryUpdate{Slot: c.slot, QuantityDelta: applied})
}
