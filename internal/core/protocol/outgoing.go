package protocol

import (
	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
)

// Outgoing is one operation sent to the world authority.
type Outgoing interface {
	FrameKind() FrameKind
}

// Hello announces the worker right after the transport is established.
type Hello struct {
	WorkerID   string `json:"worker_id"`
	WorkerType string `json:"worker_type"`
}

type AddComponent struct {
	EntityID  models.EntityID
	Component models.ComponentID
	Data      any
}

// ComponentUpdate carries a delta, never a full component value.
type ComponentUpdate struct {
	EntityID  models.EntityID
	Component models.ComponentID
	Update    any
}

type DeleteEntityRequest struct {
	EntityID models.EntityID
}

type CommandResponse struct {
	EntityID  models.EntityID
	RequestID models.RequestID
	Command   models.CommandID
	Response  any
}

type LogMessage struct {
	Level   log.Level `json:"level"`
	Logger  string    `json:"logger"`
	Message string    `json:"message"`
}

func (Hello) FrameKind() FrameKind               { return FrameHello }
func (AddComponent) FrameKind() FrameKind        { return FrameAddComponent }
func (ComponentUpdate) FrameKind() FrameKind     { return FrameComponentUpdate }
func (DeleteEntityRequest) FrameKind() FrameKind { return FrameDeleteEntity }
func (CommandResponse) FrameKind() FrameKind     { return FrameCommandResponse }
func (LogMessage) FrameKind() FrameKind          { return FrameLog }
