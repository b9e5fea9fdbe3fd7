package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) Logger {
	return NewWithConfig(Config{
		Name:   "test",
		Format: FormatJSON,
		Level:  slog.LevelDebug,
		Writer: buf,
	})
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf).Function("TestFunc")

	log.Info("something happened", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "something happened", entry["msg"])
	assert.Equal(t, "test", entry["package"])
	assert.Equal(t, "TestFunc", entry["function"])
	assert.Equal(t, float64(3), entry["count"])
}

func TestErrReturnsOriginalError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	original := assert.AnError
	returned := log.Err("operation failed", original)

	assert.Same(t, original, returned)
	assert.Contains(t, buf.String(), "operation failed")
}

func TestErrMsgCreatesError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	err := log.ErrMsg("bad state")
	require.Error(t, err)
	assert.Equal(t, "bad state", err.Error())
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", TraceIDFromContext(ctx))

	var buf bytes.Buffer
	log := newBufferLogger(&buf).TraceFromContext(ctx)
	log.Info("traced")

	assert.Contains(t, buf.String(), "abc-123")
}

func TestTraceFromContextWithoutID(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf).TraceFromContext(context.Background())
	log.Info("untraced")

	assert.NotContains(t, buf.String(), "traceID")
}
