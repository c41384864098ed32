package worker

import "errors"

// Worker-specific errors
var (
	ErrDisconnected         = errors.New("disconnected from world authority")
	ErrWorkerAlreadyRunning = errors.New("worker is already running")
	ErrTransportFailed      = errors.New("transport operation failed")
)
