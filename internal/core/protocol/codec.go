package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/pkg/encoding"
	"github.com/zeusync/asteroidworker/pkg/generic"
)

// FrameKind is the wire discriminator of a frame.
type FrameKind string

const (
	FrameHello           FrameKind = "hello"
	FrameAddComponent    FrameKind = "add_component"
	FrameRemoveComponent FrameKind = "remove_component"
	FrameComponentUpdate FrameKind = "component_update"
	FrameCommandRequest  FrameKind = "command_request"
	FrameCommandResponse FrameKind = "command_response"
	FrameDeleteEntity    FrameKind = "delete_entity"
	FrameLog             FrameKind = "log"
	FrameDisconnect      FrameKind = "disconnect"
)

// Frame is the JSON envelope exchanged with the world authority.
type Frame struct {
	Kind      FrameKind          `json:"kind"`
	EntityID  models.EntityID    `json:"entity_id,omitempty"`
	Component models.ComponentID `json:"component,omitempty"`
	Command   models.CommandID   `json:"command,omitempty"`
	RequestID models.RequestID   `json:"request_id,omitempty"`
	Payload   json.RawMessage    `json:"payload,omitempty"`
}

type disconnectPayload struct {
	Reason string `json:"reason"`
}

// Validator checks raw command request payloads before they are decoded.
type Validator interface {
	Validate(command models.CommandID, payload []byte) error
}

type payloadDecoder func(json.RawMessage) (any, error)

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var componentDecoders = map[models.ComponentID]payloadDecoder{
	models.ComponentPosition:          decodeAs[models.Position],
	models.ComponentPersistence:       decodeAs[models.Persistence],
	models.ComponentIdentification:    decodeAs[models.Identification],
	models.ComponentResourceInventory: decodeAs[models.ResourceInventory],
}

var commandDecoders = map[models.CommandID]payloadDecoder{
	models.CommandGenerateResource: decodeAs[models.GenerateResourceRequest],
	models.CommandExtractResource:  decodeAs[models.ExtractResourceRequest],
}

// Codec turns operations into frames and back.
type Codec struct {
	compressor encoding.Compressor
	validator  Validator
	buffers    *generic.Pool[*bytes.Buffer]
}

// NewCodec creates a codec. A nil compressor means no compression; a nil validator
// skips payload validation.
func NewCodec(compressor encoding.Compressor, validator Validator) *Codec {
	if compressor == nil {
		compressor = encoding.Identity{}
	}
	return &Codec{
		compressor: compressor,
		validator:  validator,
		buffers: generic.NewPool(
			func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 512)) },
			func(b *bytes.Buffer) { b.Reset() },
		),
	}
}

// Encode serializes an outgoing operation.
func (c *Codec) Encode(out Outgoing) ([]byte, error) {
	frame, err := outgoingFrame(out)
	if err != nil {
		return nil, err
	}
	return c.EncodeFrame(frame)
}

// EncodeOp serializes an inbound operation. The worker never sends these; the
// authority side of tests and tools does.
func (c *Codec) EncodeOp(op Op) ([]byte, error) {
	frame := Frame{}
	switch o := op.(type) {
	case AddComponentOp:
		frame = Frame{Kind: FrameAddComponent, EntityID: o.EntityID, Component: o.Component}
		payload, err := json.Marshal(o.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		frame.Payload = payload
	case RemoveComponentOp:
		frame = Frame{Kind: FrameRemoveComponent, EntityID: o.EntityID, Component: o.Component}
	case CommandRequestOp:
		frame = Frame{Kind: FrameCommandRequest, EntityID: o.EntityID, Command: o.Command, RequestID: o.RequestID}
		payload, err := json.Marshal(o.Request)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		frame.Payload = payload
	case DisconnectOp:
		payload, _ := json.Marshal(disconnectPayload{Reason: o.Reason})
		frame = Frame{Kind: FrameDisconnect, Payload: payload}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFrameKind, op)
	}
	return c.EncodeFrame(frame)
}

func (c *Codec) EncodeFrame(frame Frame) ([]byte, error) {
	buf := c.buffers.Get()
	defer c.buffers.Put(buf)

	if err := json.NewEncoder(buf).Encode(frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	// buf goes back to the pool; the frame must not alias it.
	return c.compressor.Compress(append([]byte(nil), data...)), nil
}

// DecodeFrame undoes EncodeFrame without interpreting the payload.
func (c *Codec) DecodeFrame(data []byte) (Frame, error) {
	var frame Frame
	raw, err := c.compressor.Decompress(data)
	if err != nil {
		return frame, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if err = json.Unmarshal(raw, &frame); err != nil {
		return frame, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return frame, nil
}

// Decode parses an inbound frame into a typed operation.
func (c *Codec) Decode(data []byte) (Op, error) {
	frame, err := c.DecodeFrame(data)
	if err != nil {
		return nil, err
	}

	switch frame.Kind {
	case FrameAddComponent:
		decode, ok := componentDecoders[frame.Component]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, frame.Component)
		}
		value, err := decode(frame.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, frame.Component, err)
		}
		return AddComponentOp{EntityID: frame.EntityID, Component: frame.Component, Data: value}, nil

	case FrameRemoveComponent:
		return RemoveComponentOp{EntityID: frame.EntityID, Component: frame.Component}, nil

	case FrameCommandRequest:
		decode, ok := commandDecoders[frame.Command]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, frame.Command)
		}
		if c.validator != nil {
			if err := c.validator.Validate(frame.Command, frame.Payload); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, frame.Command, err)
			}
		}
		value, err := decode(frame.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, frame.Command, err)
		}
		return CommandRequestOp{
			EntityID:  frame.EntityID,
			RequestID: frame.RequestID,
			Command:   frame.Command,
			Request:   value,
		}, nil

	case FrameDisconnect:
		var p disconnectPayload
		if len(frame.Payload) > 0 {
			_ = json.Unmarshal(frame.Payload, &p)
		}
		return DisconnectOp{Reason: p.Reason}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrameKind, frame.Kind)
	}
}

func outgoingFrame(out Outgoing) (Frame, error) {
	var (
		frame Frame
		body  any
	)

	switch o := out.(type) {
	case Hello:
		frame, body = Frame{Kind: FrameHello}, o
	case AddComponent:
		frame, body = Frame{Kind: FrameAddComponent, EntityID: o.EntityID, Component: o.Component}, o.Data
	case ComponentUpdate:
		frame, body = Frame{Kind: FrameComponentUpdate, EntityID: o.EntityID, Component: o.Component}, o.Update
	case DeleteEntityRequest:
		return Frame{Kind: FrameDeleteEntity, EntityID: o.EntityID}, nil
	case CommandResponse:
		frame = Frame{Kind: FrameCommandResponse, EntityID: o.EntityID, Command: o.Command, RequestID: o.RequestID}
		body = o.Response
	case LogMessage:
		frame, body = Frame{Kind: FrameLog}, o
	default:
		return frame, fmt.Errorf("%w: %T", ErrUnknownFrameKind, out)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return frame, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	frame.Payload = payload
	return frame, nil
}
