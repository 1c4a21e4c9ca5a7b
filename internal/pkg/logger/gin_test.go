package logger

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTag(t *testing.T) {
	cases := map[string]string{
		"/api/ping":                          "ping",
		"/api/events":                        "ws",
		"/api/competitors/3/refresh":         "enrichment",
		"/api/metrics/snapshots":             "ingest",
		"/api/metrics/init":                  "ingest",
		"/api/competitors/3/metrics/history": "metrics",
		"/api/competitors":                   "competitors",
		"/api/competitors/batch/delete":      "competitors",
		"/favicon.ico":                       "other",
	}
	for path, want := range cases {
		assert.Equal(t, want, routeTag(path), path)
	}
}

func TestFormatAccess(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "/api/competitors/9/refresh", nil)
	require.NoError(t, err)
	req = req.WithContext(WithTraceID(context.Background(), "trace-9"))

	line := formatAccess(gin.LogFormatterParams{
		Request:    req,
		TimeStamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		StatusCode: http.StatusBadGateway,
		Latency:    1500 * time.Millisecond,
		ClientIP:   "10.0.0.1",
		Method:     http.MethodPost,
		Path:       "/api/competitors/9/refresh",
		BodySize:   42,
	})

	var rec accessRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "trace-9", rec.TraceID)
	assert.Equal(t, "enrichment", rec.Route)
	assert.Equal(t, "ERROR", rec.Level)
	assert.Equal(t, "GIN_ACCESS", rec.Msg)
	assert.Equal(t, "1.5s", rec.Latency)
	assert.Equal(t, "10.0.0.1", rec.ClientIP)
	assert.Equal(t, 42, rec.BodySize)
	assert.Empty(t, rec.Error)
}
