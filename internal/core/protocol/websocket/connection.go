package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
)

var _ protocol.Connection = (*Connection)(nil)

// Connection implements protocol.Connection over a WebSocket. Every frame is one
// binary message.
type Connection struct {
	conn   *websocket.Conn
	codec  *protocol.Codec
	inbox  *protocol.Inbox
	config protocol.Config
	logger log.Log

	closed atomic.Bool
	done   chan struct{}
}

// Dial connects to the authority at url (ws:// or wss://) and starts the reader.
func Dial(ctx context.Context, url string, codec *protocol.Codec, config protocol.Config, logger log.Log) (*Connection, error) {
	if logger == nil {
		logger = log.Provide()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.HandshakeTimeout,
		ReadBufferSize:   64 * 1024,
		WriteBufferSize:  64 * 1024,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		logger.Error("Failed to dial WebSocket connection", log.String("url", url), log.Error(err))
		return nil, fmt.Errorf("%w: %v", protocol.ErrDialFailed, err)
	}

	logger.Info("WebSocket connection established",
		log.String("local_addr", conn.LocalAddr().String()),
		log.String("remote_addr", conn.RemoteAddr().String()))

	return newConnection(conn, codec, config, logger), nil
}

func newConnection(conn *websocket.Conn, codec *protocol.Codec, config protocol.Config, logger log.Log) *Connection {
	if config.MaxFrameSize > 0 {
		conn.SetReadLimit(int64(config.MaxFrameSize))
	}

	c := &Connection{
		conn:   conn,
		codec:  codec,
		inbox:  protocol.NewInbox(config.InboxSize, config.MaxBatchSize),
		config: config,
		logger: logger.With(log.String("transport", "websocket")),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Connection) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("WebSocket read failed", log.Error(err))
				c.inbox.Put(protocol.DisconnectOp{Reason: err.Error()})
			}
			return
		}

		op, err := c.codec.Decode(data)
		if err != nil {
			c.logger.Warn("Dropping undecodable frame", log.Error(err))
			continue
		}
		if !c.inbox.Put(op) {
			return
		}
	}
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

	data, err := c.codec.Encode(out)
	if err != nil {
		return err
	}

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.inbox.Close()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "worker shutdown"),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	<-c.done

	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return nil
}
