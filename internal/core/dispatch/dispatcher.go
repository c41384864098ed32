// Package dispatch routes inbound operation batches to feature handlers.
//
// Each feature owns one Dispatcher. The Router hands the same batch to every
// dispatcher concurrently; a dispatcher walks the batch in order, so handlers of one
// feature observe operations in arrival order.
package dispatch

import (
	"fmt"

	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
)

type (
	AddHandler        func(op protocol.AddComponentOp)
	RemoveHandler     func(op protocol.RemoveComponentOp)
	CommandHandler    func(op protocol.CommandRequestOp)
	DisconnectHandler func(op protocol.DisconnectOp)
)

// Dispatcher is a per-feature handler table. Registration is not goroutine-safe and
// must finish before the first Process call.
type Dispatcher struct {
	name   string
	logger log.Log

	adds        map[models.ComponentID][]AddHandler
	removes     map[models.ComponentID][]RemoveHandler
	commands    map[models.CommandID][]CommandHandler
	disconnects []DisconnectHandler
}

func NewDispatcher(name string, logger log.Log) *Dispatcher {
	if logger == nil {
		logger = log.Provide()
	}
	return &Dispatcher{
		name:     name,
		logger:   logger.Named(name),
		adds:     make(map[models.ComponentID][]AddHandler),
		removes:  make(map[models.ComponentID][]RemoveHandler),
		commands: make(map[models.CommandID][]CommandHandler),
	}
}

func (d *Dispatcher) Name() string {
	return d.name
}

func (d *Dispatcher) OnAddComponent(component models.ComponentID, handler AddHandler) {
	d.adds[component] = append(d.adds[component], handler)
}

func (d *Dispatcher) OnRemoveComponent(component models.ComponentID, handler RemoveHandler) {
	d.removes[component] = append(d.removes[component], handler)
}

func (d *Dispatcher) OnCommandRequest(command models.CommandID, handler CommandHandler) {
	d.commands[command] = append(d.commands[command], handler)
}

func (d *Dispatcher) OnDisconnect(handler DisconnectHandler) {
	d.disconnects = append(d.disconnects, handler)
}

// Process invokes the matching handlers for every operation of the batch, in order.
// Operations nobody registered for are ignored.
func (d *Dispatcher) Process(ops protocol.OpList) {
	for _, op := range ops {
		switch op := op.(type) {
		case protocol.AddComponentOp:
			for _, handler := range d.adds[op.Component] {
				handler(op)
			}
		case protocol.RemoveComponentOp:
			for _, handler := range d.removes[op.Component] {
				handler(op)
			}
		case protocol.CommandRequestOp:
			for _, handler := range d.commands[op.Command] {
				handler(op)
			}
		case protocol.DisconnectOp:
			for _, handler := range d.disconnects {
				handler(op)
			}
		}
	}
}

// OnAdd registers a handler receiving the component value already unwrapped to T.
// Operations carrying a different payload type are logged and dropped.
func OnAdd[T any](d *Dispatcher, component models.ComponentID, handler func(id models.EntityID, data T)) {
	d.OnAddComponent(component, func(op protocol.AddComponentOp) {
		data, ok := op.Data.(T)
		if !ok {
			d.logger.Warn("Unexpected component payload",
				log.String("component", string(component)),
				log.Int64("entity", int64(op.EntityID)),
				log.String("type", fmt.Sprintf("%T", op.Data)))
			return
		}
		handler(op.EntityID, data)
	})
}

// OnCommand registers a handler receiving the request already unwrapped to Req.
func OnCommand[Req any](d *Dispatcher, command models.CommandID, handler func(op protocol.CommandRequestOp, request Req)) {
	d.OnCommandRequest(command, func(op protocol.CommandRequestOp) {
		request, ok := op.Request.(Req)
		if !ok {
			d.logger.Warn("Unexpected command payload",
				log.String("command", string(command)),
				log.Int64("entity", int64(op.EntityID)),
				log.String("type", fmt.Sprintf("%T", op.Request)))
			return
		}
		handler(op, request)
	})
}
