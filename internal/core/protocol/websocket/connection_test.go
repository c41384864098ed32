package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
)

// fakeAuthority accepts one worker, records the first frame it sends and then
// pushes the given ops before closing the socket.
func fakeAuthority(t *testing.T, codec *protocol.Codec, received chan<- protocol.Frame, ops ...protocol.Op) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := codec.DecodeFrame(data)
		if err == nil {
			received <- frame
		}

		for _, op := range ops {
			data, err := codec.EncodeOp(op)
			if err != nil {
				return
			}
			if err = conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
		// garbage must be skipped, not treated as a disconnect
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("not a frame"))
		_ = conn.WriteMessage(websocket.BinaryMessage, mustEncode(t, codec, protocol.RemoveComponentOp{EntityID: 5, Component: models.ComponentPosition}))

		// wait for the worker to hang up
		_, _, _ = conn.ReadMessage()
	}))
}

func mustEncode(t *testing.T, codec *protocol.Codec, op protocol.Op) []byte {
	data, err := codec.EncodeOp(op)
	require.NoError(t, err)
	return data
}

func TestConnection_RoundTrip(t *testing.T) {
	codec := protocol.NewCodec(nil, nil)
	received := make(chan protocol.Frame, 1)

	position := protocol.AddComponentOp{
		EntityID:  5,
		Component: models.ComponentPosition,
		Data:      models.Position{Coords: models.Coordinates{X: 10, Y: -4, Z: 0.5}},
	}
	srv := fakeAuthority(t, codec, received, position)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url, codec, protocol.DefaultConfig(), log.NewNop())
	require.NoError(t, err)

	require.NoError(t, conn.Send(protocol.Hello{WorkerID: "w1", WorkerType: "asteroid_worker"}))

	select {
	case frame := <-received:
		require.Equal(t, protocol.FrameHello, frame.Kind)
	case <-ctx.Done():
		t.Fatal("authority never saw the hello frame")
	}

	var ops protocol.OpList
	for len(ops) < 2 {
		batch, err := conn.GetOpList(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		ops = append(ops, batch...)
	}
	require.Equal(t, position, ops[0])
	require.Equal(t, protocol.RemoveComponentOp{EntityID: 5, Component: models.ComponentPosition}, ops[1])

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = conn.GetOpList(ctx, time.Millisecond)
	require.ErrorIs(t, err, protocol.ErrConnectionClosed)
	require.ErrorIs(t, conn.Send(protocol.DeleteEntityRequest{EntityID: 5}), protocol.ErrConnectionClosed)
}

func TestConnection_ServerHangupBecomesDisconnect(t *testing.T) {
	codec := protocol.NewCodec(nil, nil)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), codec, protocol.DefaultConfig(), log.NewNop())
	require.NoError(t, err)
	defer conn.Close()

	for {
		batch, err := conn.GetOpList(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		if len(batch) > 0 {
			require.Equal(t, protocol.OpDisconnect, batch[0].Kind())
			return
		}
	}
}

func TestDial_Failure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, "ws://127.0.0.1:1/nothing", protocol.NewCodec(nil, nil), protocol.DefaultConfig(), log.NewNop())
	require.ErrorIs(t, err, protocol.ErrDialFailed)
}
