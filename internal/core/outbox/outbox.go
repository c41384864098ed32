// Package outbox collects outgoing operations produced by the feature loops and
// sends them to the world authority from the main loop, in a fixed category order.
package outbox

import (
	"fmt"

	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/pkg/sequence"
)

var _ log.Sink = (*Outbox)(nil)

// Sender is the part of protocol.Connection the outbox writes to.
type Sender interface {
	Send(out protocol.Outgoing) error
}

// Outbox has one FIFO queue per category. Producers on any goroutine enqueue;
// only the main loop flushes.
type Outbox struct {
	persistenceAdds    *sequence.Queue[protocol.AddComponent]
	inventoryAdds      *sequence.Queue[protocol.AddComponent]
	identificationAdds *sequence.Queue[protocol.AddComponent]

	inventoryUpdates *sequence.Queue[protocol.ComponentUpdate]

	deleteRequests *sequence.Queue[protocol.DeleteEntityRequest]

	generateResponses *sequence.Queue[protocol.CommandResponse]
	extractResponses  *sequence.Queue[protocol.CommandResponse]

	logs *sequence.Queue[protocol.LogMessage]
}

func New() *Outbox {
	return &Outbox{
		persistenceAdds:    sequence.NewQueue[protocol.AddComponent](),
		inventoryAdds:      sequence.NewQueue[protocol.AddComponent](),
		identificationAdds: sequence.NewQueue[protocol.AddComponent](),
		inventoryUpdates:   sequence.NewQueue[protocol.ComponentUpdate](),
		deleteRequests:     sequence.NewQueue[protocol.DeleteEntityRequest](),
		generateResponses:  sequence.NewQueue[protocol.CommandResponse](),
		extractResponses:   sequence.NewQueue[protocol.CommandResponse](),
		logs:               sequence.NewQueue[protocol.LogMessage](),
	}
}

func (o *Outbox) AddPersistence(id models.EntityID) {
	o.persistenceAdds.Enqueue(protocol.AddComponent{
		EntityID:  id,
		Component: models.ComponentPersistence,
		Data:      models.Persistence{},
	})
}

func (o *Outbox) AddResourceInventory(id models.EntityID, inventory models.ResourceInventory) {
	o.inventoryAdds.Enqueue(protocol.AddComponent{
		EntityID:  id,
		Component: models.ComponentResourceInventory,
		Data:      inventory,
	})
}

func (o *Outbox) AddIdentification(id models.EntityID, identification models.Identification) {
	o.identificationAdds.Enqueue(protocol.AddComponent{
		EntityID:  id,
		Component: models.ComponentIdentification,
		Data:      identification,
	})
}

func (o *Outbox) UpdateResourceInventory(id models.EntityID, update models.InventoryUpdate) {
	o.inventoryUpdates.Enqueue(protocol.ComponentUpdate{
		EntityID:  id,
		Component: models.ComponentResourceInventory,
		Update:    update,
	})
}

func (o *Outbox) DeleteEntity(id models.EntityID) {
	o.deleteRequests.Enqueue(protocol.DeleteEntityRequest{EntityID: id})
}

// Respond queues a command response. Only the harvestable commands are known.
func (o *Outbox) Respond(id models.EntityID, request models.RequestID, command models.CommandID, response any) error {
	out := protocol.CommandResponse{
		EntityID:  id,
		RequestID: request,
		Command:   command,
		Response:  response,
	}
	switch command {
	case models.CommandGenerateResource:
		o.generateResponses.Enqueue(out)
	case models.CommandExtractResource:
		o.extractResponses.Enqueue(out)
	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnknownCommand, command)
	}
	return nil
}

// Emit queues a log line for the authority. It makes the outbox a log.Sink.
func (o *Outbox) Emit(level log.Level, logger, message string) {
	o.logs.Enqueue(protocol.LogMessage{Level: level, Logger: logger, Message: message})
}

// Pending reports how many operations wait for the next flush.
func (o *Outbox) Pending() int {
	return o.persistenceAdds.Len() + o.inventoryAdds.Len() + o.identificationAdds.Len() +
		o.inventoryUpdates.Len() + o.deleteRequests.Len() +
		o.generateResponses.Len() + o.extractResponses.Len() + o.logs.Len()
}

// Flush sends everything queued so far: component adds (persistence, inventory,
// identification), inventory updates, delete-entity requests, command responses
// (generate, extract) and finally log messages. Each queue keeps FIFO order.
// The first send error stops the flush and is returned; the connection is then
// considered lost.
func (o *Outbox) Flush(conn Sender) (int, error) {
	sent := 0
	steps := []func() error{
		func() error { return flushQueue(conn, o.persistenceAdds, &sent) },
		func() error { return flushQueue(conn, o.inventoryAdds, &sent) },
		func() error { return flushQueue(conn, o.identificationAdds, &sent) },
		func() error { return flushQueue(conn, o.inventoryUpdates, &sent) },
		func() error { return flushQueue(conn, o.deleteRequests, &sent) },
		func() error { return flushQueue(conn, o.generateResponses, &sent) },
		func() error { return flushQueue(conn, o.extractResponses, &sent) },
		func() error { return flushQueue(conn, o.logs, &sent) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

func flushQueue[T protocol.Outgoing](conn Sender, queue *sequence.Queue[T], sent *int) error {
	for _, out := range queue.Drain() {
		if err := conn.Send(out); err != nil {
			return fmt.Errorf("send %s: %w", out.FrameKind(), err)
		}
		*sent++
	}
	return nil
}
