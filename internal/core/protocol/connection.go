package protocol

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

// Connection is the worker's link to the world authority.
//
// GetOpList may be called from one goroutine only; Send is not safe for concurrent
// use either, which is why every outbound operation is funneled through the outbox.
type Connection interface {
	// GetOpList waits up to timeout for inbound operations and returns whatever has
	// arrived. An empty list with a nil error means the timeout elapsed.
	GetOpList(ctx context.Context, timeout time.Duration) (OpList, error)
	Send(out Outgoing) error
	Close() error
}

// Inbox buffers decoded operations between a transport's reader goroutine and
// GetOpList. Put blocks when the inbox is full, pushing back on the reader.
type Inbox struct {
	ops      chan Op
	done     chan struct{}
	once     sync.Once
	maxBatch int
}

func NewInbox(size, maxBatch int) *Inbox {
	if size <= 0 {
		size = 1
	}
	if maxBatch <= 0 {
		maxBatch = size
	}
	return &Inbox{
		ops:      make(chan Op, size),
		done:     make(chan struct{}),
		maxBatch: maxBatch,
	}
}

// Put hands an operation to the consumer. It returns false once the inbox is closed.
func (in *Inbox) Put(op Op) bool {
	select {
	case <-in.done:
		return false
	default:
	}

	select {
	case in.ops <- op:
		return true
	case <-in.done:
		return false
	}
}

// Collect waits up to timeout for the first operation, then takes everything else
// that is already buffered, up to the batch limit.
func (in *Inbox) Collect(ctx context.Context, timeout time.Duration) (OpList, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var first Op
	select {
	case first = <-in.ops:
	case <-timer.C:
		return nil, nil
	case <-in.done:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	batch := OpList{first}
	for len(batch) < in.maxBatch {
		select {
		case op := <-in.ops:
			batch = append(batch, op)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (in *Inbox) Close() {
	in.once.Do(func() { close(in.done) })
}

// WriteFrame writes a length-prefixed frame for stream transports.
func WriteFrame(w io.Writer, frame []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(frame)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}

// ReadFrame reads one frame written by WriteFrame.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if maxSize > 0 && size > maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxSize)
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
