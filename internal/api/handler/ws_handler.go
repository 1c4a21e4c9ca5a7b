package handler

import (
	"Vigia/internal/api/middleware"
	"Vigia/internal/pkg/event"
	"Vigia/internal/pkg/response"
	"Vigia/internal/service"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type WsHandler struct {
	bus      event.Bus
	upgrader websocket.Upgrader
}

// NewWsHandler 握手时按 allowedOrigins 校验 Origin，与 CORS 规则一致
func NewWsHandler(bus event.Bus, allowedOrigins []string) *WsHandler {
	return &WsHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非浏览器客户端不带 Origin
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Connect 把集合变更推送给浏览器，前端据此刷新列表
func (s *WsHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()

	sub, err := s.bus.Subscribe(ctx)
	if err != nil {
		log.ErrorContext(ctx, "订阅变更失败", "err", err)
		response.Error(c, service.ErrUnavailable)
		return
	}
	defer func() {
		_ = sub.Close()
	}()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(ctx, "WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	log.InfoContext(ctx, "WS 连接已建立", "remote", c.ClientIP())

	stopChan := make(chan struct{})

	// 读循环：监听客户端主动断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	for {
		select {
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(change)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WarnContext(ctx, "WS 推送失败", "err", err)
				return
			}
		case <-stopChan:
			log.InfoContext(ctx, "WS 连接已断开", "remote", c.ClientIP())
			return
		}
	}
}
