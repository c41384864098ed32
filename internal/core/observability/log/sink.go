package log

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
)

// sinkCore is a zapcore.Core that flattens each entry into a single line and hands it
// to a Sink. Structured fields are appended as sorted key=value pairs.
type sinkCore struct {
	zapcore.LevelEnabler
	sink   Sink
	fields []zapcore.Field
}

func newSinkCore(sink Sink, level zapcore.Level) *sinkCore {
	return &sinkCore{LevelEnabler: level, sink: sink}
}

func (c *sinkCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &sinkCore{LevelEnabler: c.LevelEnabler, sink: c.sink, fields: merged}
}

func (c *sinkCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *sinkCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	c.sink.Emit(fromZapLevel(entry.Level), entry.LoggerName, formatLine(entry.Message, enc.Fields))
	return nil
}

func (c *sinkCore) Sync() error {
	return nil
}

func formatLine(msg string, fields map[string]any) string {
	if len(fields) == 0 {
		return msg
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}
