package protocol

import (
	"github.com/zeusync/asteroidworker/internal/core/models"
)

// OpKind classifies inbound operations.
type OpKind uint8

const (
	OpAddComponent OpKind = iota + 1
	OpRemoveComponent
	OpCommandRequest
	OpDisconnect
)

func (k OpKind) String() string {
	switch k {
	case OpAddComponent:
		return "add_component"
	case OpRemoveComponent:
		return "remove_component"
	case OpCommandRequest:
		return "command_request"
	case OpDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Op is one inbound operation from the world authority.
type Op interface {
	Kind() OpKind
}

// OpList is one batch pulled from the transport. It is shared read-only between
// every dispatcher the batch is fanned out to.
type OpList []Op

// AddComponentOp notifies that a component was added to (or replaced on) an entity.
// Data holds the typed component value, e.g. models.Position.
type AddComponentOp struct {
	EntityID  models.EntityID
	Component models.ComponentID
	Data      any
}

type RemoveComponentOp struct {
	EntityID  models.EntityID
	Component models.ComponentID
}

// CommandRequestOp carries a typed request, e.g. models.ExtractResourceRequest.
type CommandRequestOp struct {
	EntityID  models.EntityID
	RequestID models.RequestID
	Command   models.CommandID
	Request   any
}

type DisconnectOp struct {
	Reason string
}

func (AddComponentOp) Kind() OpKind    { return OpAddComponent }
func (RemoveComponentOp) Kind() OpKind { return OpRemoveComponent }
func (CommandRequestOp) Kind() OpKind  { return OpCommandRequest }
func (DisconnectOp) Kind() OpKind      { return OpDisconnect }
