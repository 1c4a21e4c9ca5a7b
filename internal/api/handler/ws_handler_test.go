package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Vigia/internal/pkg/consts"
	"Vigia/internal/pkg/event"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWsServer(t *testing.T, bus event.Bus, allowed []string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/events", NewWsHandler(bus, allowed).Connect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
}

func dial(url, origin string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestWsHandler_ForwardsChanges(t *testing.T) {
	bus := event.NewMemoryBus()
	url := newWsServer(t, bus, []string{"https://painel.exemplo.com"})

	conn, _, err := dial(url, "https://painel.exemplo.com")
	require.NoError(t, err)
	defer conn.Close()

	change := event.Change{
		ChangeToken: event.ChangeToken{Collection: consts.CollectionCompetitors, Version: 5},
		Action:      consts.ChangeUpdated,
		IDs:         []uint64{3},
	}
	require.NoError(t, bus.Publish(context.Background(), change))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got event.Change
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, change.ChangeToken, got.ChangeToken)
	assert.Equal(t, []uint64{3}, got.IDs)
}

func TestWsHandler_RejectsOriginOutsideAllowlist(t *testing.T) {
	url := newWsServer(t, event.NewMemoryBus(), []string{"https://painel.exemplo.com"})

	_, resp, err := dial(url, "https://outro.com")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWsHandler_EmptyAllowlistAcceptsAnyOrigin(t *testing.T) {
	url := newWsServer(t, event.NewMemoryBus(), nil)

	conn, _, err := dial(url, "https://qualquer.com")
	require.NoError(t, err)
	_ = conn.Close()
}
