package quic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
)

var _ protocol.Connection = (*Connection)(nil)

const nextProto = "asteroid-worker"

// Connection implements protocol.Connection over a single bidirectional QUIC stream
// carrying length-prefixed frames.
type Connection struct {
	conn   *quic.Conn
	stream *quic.Stream
	codec  *protocol.Codec
	inbox  *protocol.Inbox
	config protocol.Config
	logger log.Log

	closed atomic.Bool
	done   chan struct{}
}

// Config holds QUIC-specific settings.
type Config struct {
	MaxIdleTimeout  time.Duration `yaml:"max_idle_timeout"`
	KeepAlivePeriod time.Duration `yaml:"keep_alive_period"`
	// InsecureSkipVerify disables certificate checks. Development only.
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	ServerName         string `yaml:"server_name"`
}

// DefaultQUICConfig returns default QUIC configuration
func DefaultQUICConfig() Config {
	return Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}
}

// Dial connects to the authority at addr (host:port) and opens the frame stream.
func Dial(ctx context.Context, addr string, quicConfig Config, codec *protocol.Codec, config protocol.Config, logger log.Log) (*Connection, error) {
	if logger == nil {
		logger = log.Provide()
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: quicConfig.InsecureSkipVerify,
		NextProtos:         []string{nextProto},
		MinVersion:         tls.VersionTLS13, // QUIC requires TLS 1.3
		ServerName:         quicConfig.ServerName,
	}
	if tlsConfig.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			tlsConfig.ServerName = addr
		} else {
			tlsConfig.ServerName = host
		}
	}

	dialCtx := ctx
	if config.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, config.HandshakeTimeout)
		defer cancel()
	}

	conn, err := quic.DialAddr(dialCtx, addr, tlsConfig, &quic.Config{
		MaxIdleTimeout:       quicConfig.MaxIdleTimeout,
		KeepAlivePeriod:      quicConfig.KeepAlivePeriod,
		HandshakeIdleTimeout: config.HandshakeTimeout,
	})
	if err != nil {
		logger.Error("Failed to dial QUIC connection", log.String("addr", addr), log.Error(err))
		return nil, fmt.Errorf("%w: %v", protocol.ErrDialFailed, err)
	}

	stream, err := conn.OpenStreamSync(dialCtx)
	if err != nil {
		_ = conn.CloseWithError(0, "stream open failed")
		return nil, fmt.Errorf("%w: open stream: %v", protocol.ErrDialFailed, err)
	}

	logger.Info("QUIC connection established",
		log.String("local_addr", conn.LocalAddr().String()),
		log.String("remote_addr", conn.RemoteAddr().String()))

	c := &Connection{
		conn:   conn,
		stream: stream,
		codec:  codec,
		inbox:  protocol.NewInbox(config.InboxSize, config.MaxBatchSize),
		config: config,
		logger: logger.With(log.String("transport", "quic")),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Connection) readLoop() {
	defer close(c.done)

	for {
		data, err := protocol.ReadFrame(c.stream, c.config.MaxFrameSize)
		if err != nil {
			if !c.closed.Load() {
				c.logger.Warn("QUIC read failed", log.Error(err))
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
		_ = c.stream.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	return protocol.WriteFrame(c.stream, data)
}

func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.inbox.Close()
	_ = c.stream.Close()
	err := c.conn.CloseWithError(0, "worker shutdown")
	<-c.done
	return err
}
