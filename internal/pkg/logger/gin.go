package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// accessRecord 与 slog JSON 输出同一形状，Logstash 侧共用一套索引模板
type accessRecord struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id"`
	LogToken    string `json:"log_token"`
	TargetIndex string `json:"target_index"`
	Route       string `json:"route"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	ClientIP    string `json:"client_ip"`
	BodySize    int    `json:"body_size"`
	Error       string `json:"error,omitempty"`
}

// routeTag 按路由分组打标签，便于单独统计采集、回写和推送流量
func routeTag(path string) string {
	switch {
	case path == "/api/ping":
		return "ping"
	case path == "/api/events":
		return "ws"
	case strings.HasPrefix(path, "/api/competitors/") && strings.HasSuffix(path, "/refresh"):
		return "enrichment"
	case strings.HasPrefix(path, "/api/metrics/"):
		return "ingest"
	case strings.Contains(path, "/metrics/"):
		return "metrics"
	case strings.HasPrefix(path, "/api/competitors"):
		return "competitors"
	}
	return "other"
}

func accessLevel(status int) string {
	switch {
	case status >= 500:
		return "ERROR"
	case status >= 400:
		return "WARN"
	}
	return "INFO"
}

func formatAccess(p gin.LogFormatterParams) string {
	var traceID string
	if id, ok := p.Keys[TraceIDKey].(string); ok {
		traceID = id
	}
	if traceID == "" && p.Request != nil {
		traceID = TraceID(p.Request.Context())
	}

	line, err := json.Marshal(accessRecord{
		Time:        p.TimeStamp.Format(time.RFC3339),
		Level:       accessLevel(p.StatusCode),
		Msg:         "GIN_ACCESS",
		TraceID:     traceID,
		LogToken:    remote.Token,
		TargetIndex: remote.Index,
		Route:       routeTag(p.Path),
		Method:      p.Method,
		Path:        p.Path,
		Status:      p.StatusCode,
		Latency:     p.Latency.String(),
		ClientIP:    p.ClientIP,
		BodySize:    p.BodySize,
		Error:       strings.TrimSpace(p.ErrorMessage),
	})
	if err != nil {
		return ""
	}
	return string(line) + "\n"
}

func SetupGin(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		Formatter: formatAccess,
		// 心跳不记录
		SkipPaths: []string{"/api/ping"},
	}))

	r.Use(gin.Recovery())
}
