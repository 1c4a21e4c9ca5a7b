package logger

import (
	"bytes"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

const (
	httpBodyLimit     = 1000
	httpSlowThreshold = 2 * time.Second
)

// HTTPTransport 记录出站请求与响应，Name 用于区分下游服务
type HTTPTransport struct {
	Name      string
	Transport http.RoundTripper
}

func NewHTTPTransport(name string) *HTTPTransport {
	return &HTTPTransport{Name: name, Transport: http.DefaultTransport}
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	start := time.Now()

	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	resp, err := next.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("target", t.Name),
		log.String("method", req.Method),
		log.String("url", req.URL.String()),
		log.Duration("latency", elapsed),
		log.String("req_body", truncate(string(reqBody))),
	}

	if err != nil {
		log.ErrorContext(req.Context(), "HTTP Client Error", append(fields, log.Any("err", err))...)
		return nil, err
	}

	fields = append(fields, log.Int("status", resp.StatusCode))

	// body 读取中途超时或断开时返回错误，不能把截断的 body 当作正常响应交给上层
	var resBody []byte
	if resp.Body != nil {
		var readErr error
		resBody, readErr = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			log.ErrorContext(req.Context(), "HTTP Client Read Body Error",
				append(fields, log.String("res_body", truncate(string(resBody))), log.Any("err", readErr))...)
			return nil, fmt.Errorf("read response body: %w", readErr)
		}
		resp.Body = io.NopCloser(bytes.NewBuffer(resBody))
	}
	fields = append(fields, log.String("res_body", truncate(string(resBody))))

	switch {
	case resp.StatusCode >= 500:
		log.ErrorContext(req.Context(), "HTTP Client Bad Status", fields...)
	case elapsed > httpSlowThreshold:
		log.WarnContext(req.Context(), "HTTP Client Slow", fields...)
	default:
		log.InfoContext(req.Context(), "HTTP Client", fields...)
	}

	return resp, nil
}

func truncate(s string) string {
	if len(s) > httpBodyLimit {
		return s[:httpBodyLimit] + "...[truncated]"
	}
	return s
}
