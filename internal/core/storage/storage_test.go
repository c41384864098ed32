package storage_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/asteroidworker/internal/core/observability/log"
	"github.com/zeusync/asteroidworker/internal/core/storage"
	"github.com/zeusync/asteroidworker/internal/core/storage/memory"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	fields := storage.Fields{"coords": []float64{1, 2, 3}}
	require.NoError(t, s.CreateDocument(ctx, "rocks", "a", fields))
	require.ErrorIs(t, s.CreateDocument(ctx, "rocks", "a", fields), storage.ErrDocumentExists)

	doc, ok := s.Document("rocks", "a")
	require.True(t, ok)
	assert.Equal(t, fields, doc)
	assert.Equal(t, 1, s.Count("rocks"))

	require.NoError(t, s.DeleteDocument(ctx, "rocks", "a"))
	require.ErrorIs(t, s.DeleteDocument(ctx, "rocks", "a"), storage.ErrDocumentNotFound)

	require.NoError(t, s.Close())
	require.ErrorIs(t, s.CreateDocument(ctx, "rocks", "b", nil), storage.ErrStoreClosed)
}

type slowStore struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *slowStore) CreateDocument(ctx context.Context, _, _ string, _ storage.Fields) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	s.calls.Add(1)
	return s.err
}

func (s *slowStore) DeleteDocument(context.Context, string, string) error {
	s.calls.Add(1)
	return s.err
}

func (s *slowStore) Close() error { return nil }

func TestDetached_DoesNotBlockCaller(t *testing.T) {
	store := &slowStore{delay: 50 * time.Millisecond}
	d := storage.NewDetached(store, time.Second, log.NewNop())

	start := time.Now()
	for i := 0; i < 5; i++ {
		d.Create("rocks", "id", nil)
	}
	assert.Less(t, time.Since(start), 40*time.Millisecond)

	d.Wait()
	assert.Equal(t, int32(5), store.calls.Load())
}

func TestDetached_FailuresAreSwallowed(t *testing.T) {
	store := &slowStore{err: errors.New("unavailable")}
	d := storage.NewDetached(store, 0, log.NewNop())
	d.Delete("rocks", "id")
	d.Wait()
	assert.Equal(t, int32(1), store.calls.Load())
}
