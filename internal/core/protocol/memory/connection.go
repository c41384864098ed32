// Package memory provides an in-process Connection. The authority side pushes
// operations with Deliver and inspects everything the worker sent with Sent.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/asteroidworker/internal/core/protocol"
)

var _ protocol.Connection = (*Connection)(nil)

type Connection struct {
	inbox  *protocol.Inbox
	closed atomic.Bool

	mu   sync.Mutex
	sent []protocol.Outgoing

	// SendHook, when set, is called before an operation is recorded. A non-nil
	// error is returned from Send and the operation is dropped.
	SendHook func(protocol.Outgoing) error
}

func New(size int) *Connection {
	return &Connection{inbox: protocol.NewInbox(size, size)}
}

// Deliver queues inbound operations for the next GetOpList.
func (c *Connection) Deliver(ops ...protocol.Op) {
	for _, op := range ops {
		c.inbox.Put(op)
	}
}

// Disconnect delivers a disconnect notification.
func (c *Connection) Disconnect(reason string) {
	c.inbox.Put(protocol.DisconnectOp{Reason: reason})
}

func (c *Connection) GetOpList(ctx context.Context, timeout time.Duration) (protocol.OpList, error) {
	if c.closed.Load() {
		return nil, protocol.ErrConnectionClosed
	}
	return c.inbox.Collect(ctx, timeout)
}

func (c *Connection) Send(out protocol.Outgoing) error {
	if c.closed.Load() {
		return protocol.ErrConnectionClosed
	}
	if c.SendHook != nil {
		if err := c.SendHook(out); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.sent = append(c.sent, out)
	c.mu.Unlock()
	return nil
}

// Sent returns a copy of everything sent so far, in send order.
func (c *Connection) Sent() []protocol.Outgoing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Outgoing(nil), c.sent...)
}

// Reset forgets recorded operations.
func (c *Connection) Reset() {
	c.mu.Lock()
	c.sent = nil
	c.mu.Unlock()
}

func (c *Connection) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.inbox.Close()
	}
	return nil
}

func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}
