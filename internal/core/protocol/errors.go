package protocol

import "errors"

// Core protocol errors
var (
	// Connection errors

	ErrConnectionClosed = errors.New("connection is closed")
	ErrDialFailed       = errors.New("dial failed")

	// Frame errors

	ErrInvalidFrame     = errors.New("invalid frame")
	ErrFrameTooLarge    = errors.New("frame too large")
	ErrUnknownFrameKind = errors.New("unknown frame kind")
	ErrUnknownComponent = errors.New("unknown component")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidPayload   = errors.New("invalid payload")

	// Configuration errors

	ErrTransportNotSupported = errors.New("transport not supported")
)
