package log

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	records []record
}

type record struct {
	level   Level
	logger  string
	message string
}

func (s *recordingSink) Emit(level Level, logger, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record{level: level, logger: logger, message: message})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelNone,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestLogger_WithSinkMirrorsRecordsAboveLevel(t *testing.T) {
	sink := &recordingSink{}
	logger := NewNop().WithSink(sink, LevelWarn)

	named := logger.Named("Extraction").With(String("entity", "42"))
	named.Info("ignored")
	named.Warn("slot vanished", Int("slot", 0))
	named.Error("store failed", Error(errors.New("boom")))

	require.Len(t, sink.records, 2)
	assert.Equal(t, LevelWarn, sink.records[0].level)
	assert.Equal(t, "Extraction", sink.records[0].logger)
	assert.Equal(t, "slot vanished entity=42 slot=0", sink.records[0].message)
	assert.Equal(t, LevelError, sink.records[1].level)
	assert.Contains(t, sink.records[1].message, "error=boom")
}

func TestLogger_WithSinkNoneIsNoop(t *testing.T) {
	sink := &recordingSink{}
	base := NewNop()
	assert.Same(t, base, base.WithSink(sink, LevelNone))
	assert.Same(t, base, base.WithSink(nil, LevelInfo))
}
