package logger

import (
	"bytes"
	"context"
	log "log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestContextHandler_AddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&ContextHandler{log.NewJSONHandler(&buf, nil)})

	l.InfoContext(WithTraceID(context.Background(), "abc-123"), "hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "abc-123", lines[0][TraceIDKey])
}

func TestContextHandler_WithAttrsKeepsTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&ContextHandler{log.NewJSONHandler(&buf, nil)}).With("component", "test")

	l.InfoContext(WithTraceID(context.Background(), "t-1"), "hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "t-1", lines[0][TraceIDKey])
	assert.Equal(t, "test", lines[0]["component"])
}

func TestTeeHandler_RemoteOnlyGetsTracedRecords(t *testing.T) {
	var local, remoteBuf bytes.Buffer
	tee := &TeeHandler{handlers: []log.Handler{
		log.NewJSONHandler(&local, nil),
		&RemoteFilterHandler{next: log.NewJSONHandler(&remoteBuf, nil)},
	}}
	l := log.New(&ContextHandler{tee})

	l.Info("untraced")
	l.InfoContext(WithTraceID(context.Background(), "t-2"), "traced")

	assert.Len(t, decodeLines(t, &local), 2)
	remoteLines := decodeLines(t, &remoteBuf)
	require.Len(t, remoteLines, 1)
	assert.Equal(t, "traced", remoteLines[0]["msg"])
}

func TestTraceID_Missing(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}

func TestSQLOperation(t *testing.T) {
	assert.Equal(t, "SELECT", sqlOperation("select * from competitors"))
	assert.Equal(t, "INSERT", sqlOperation("  INSERT INTO competitor_metrics"))
	assert.Equal(t, "Query", sqlOperation(""))
}
