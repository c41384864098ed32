package worker

import (
	"context"
	"fmt"

	"github.com/zeusync/asteroidworker/internal/config"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
	"github.com/zeusync/asteroidworker/internal/core/protocol/quic"
	"github.com/zeusync/asteroidworker/internal/core/protocol/websocket"
	"github.com/zeusync/asteroidworker/internal/core/schema"
	"github.com/zeusync/asteroidworker/internal/core/storage"
	memstore "github.com/zeusync/asteroidworker/internal/core/storage/memory"
	"github.com/zeusync/asteroidworker/internal/core/storage/sqlite"
	"github.com/zeusync/asteroidworker/pkg/encoding"
)

// NewLogger builds the process logger at the configured level.
func NewLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.Log.Level)
}

// NewCodec builds the frame codec with the configured compression and, when enabled,
// command payload validation. The cleanup releases the compressor.
func NewCodec(cfg config.Config) (*protocol.Codec, func(), error) {
	compressor, err := encoding.NewCompressor(cfg.Protocol.Compression)
	if err != nil {
		return nil, nil, err
	}

	var validator protocol.Validator
	if cfg.Protocol.ValidatePayloads {
		registry, err := schema.Default()
		if err != nil {
			_ = compressor.Close()
			return nil, nil, err
		}
		validator = registry
	}
	return protocol.NewCodec(compressor, validator), func() { _ = compressor.Close() }, nil
}

// Connect dials the world authority with the configured transport. The returned
// cleanup closes the connection; closing twice is harmless.
func Connect(ctx context.Context, cfg config.Config, codec *protocol.Codec, logger *log.Logger) (protocol.Connection, func(), error) {
	var (
		conn protocol.Connection
		err  error
	)
	switch cfg.Authority.Transport {
	case config.TransportWebSocket:
		conn, err = websocket.Dial(ctx, cfg.Authority.Address, codec, cfg.Protocol, logger)
	case config.TransportQUIC:
		conn, err = quic.Dial(ctx, cfg.Authority.Address, cfg.Authority.QUIC, codec, cfg.Protocol, logger)
	default:
		return nil, nil, fmt.Errorf("%w: %s", protocol.ErrTransportNotSupported, cfg.Authority.Transport)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransportFailed, err)
	}
	return conn, func() { _ = conn.Close() }, nil
}

// OpenStore opens the configured document store.
func OpenStore(cfg config.Config) (storage.DocumentStore, func(), error) {
	var (
		store storage.DocumentStore
		err   error
	)
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		store, err = sqlite.Open(cfg.Store.Path)
	case config.StoreMemory:
		store = memstore.New()
	default:
		err = fmt.Errorf("%w: store driver %q", config.ErrInvalidConfig, cfg.Store.Driver)
	}
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
