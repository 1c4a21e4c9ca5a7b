package enrichment

import (
	"Vigia/internal/api/config"
	"Vigia/internal/pkg/logger"
	"Vigia/internal/model"
	"bytes"
	"context"
	stderrors "errors"
	log "log/slog"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

var (
	ErrGateway            = stderrors.New("enrichment gateway failed")
	ErrGatewayTimeout     = errors.Wrap(ErrGateway, "timeout")
	ErrGatewayUnreachable = errors.Wrap(ErrGateway, "unreachable")
	ErrGatewayBadResponse = errors.Wrap(ErrGateway, "bad response")
	ErrGatewayDisabled    = errors.Wrap(ErrGateway, "no url configured")
)

// Gateway 外部指标采集服务
type Gateway interface {
	Notify(ctx context.Context, youtubeID string) (*Result, error)
}

// Result Async 为 true 表示对方只确认收到请求，指标稍后异步写入
type Result struct {
	Async        bool
	ChannelTitle string
	Counts       model.Counts
}

// HasCounts 是否带回了至少一个计数
func (r *Result) HasCounts() bool {
	return r != nil && (r.Counts.Subscribers != nil || r.Counts.Views != nil || r.Counts.Videos != nil)
}

type Client struct {
	url  string
	http *resty.Client
}

func NewClient(cfg config.EnrichmentConfig) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	client := resty.New().
		SetTransport(logger.NewHTTPTransport("enrichment")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{
		url:  strings.TrimSpace(cfg.URL),
		http: client,
	}
}

// Notify 发送 {"youtube_id": ...}，不重试
func (c *Client) Notify(ctx context.Context, youtubeID string) (*Result, error) {
	if c.url == "" {
		return nil, ErrGatewayDisabled
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"youtube_id": youtubeID}).
		Post(c.url)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrapf(ErrGatewayTimeout, "after %s: %v", time.Since(start).Round(time.Millisecond), err)
		}
		return nil, errors.Wrapf(ErrGatewayUnreachable, "%v", err)
	}

	if !resp.IsSuccess() {
		return nil, errors.Wrapf(ErrGatewayBadResponse, "status %d", resp.StatusCode())
	}

	result, err := parseBody(resp.Body())
	if err != nil {
		return nil, errors.Wrapf(ErrGatewayBadResponse, "decode body: %v", err)
	}

	log.InfoContext(ctx, "enrichment notified",
		"youtube_id", youtubeID,
		"status", resp.StatusCode(),
		"async", result.Async,
		"cost", time.Since(start).String(),
	)
	return result, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// channelPayload 采集服务的响应字段
type channelPayload struct {
	Title       string    `json:"titulo_canal"`
	Views       flexCount `json:"visualizações"`
	Subscribers flexCount `json:"inscritos"`
	Videos      flexCount `json:"videos"`
}

// parseBody 空 body、{} 或 [] 视为异步确认；数组响应取第一个元素
func parseBody(body []byte) (*Result, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &Result{Async: true}, nil
	}

	var payload channelPayload
	if body[0] == '[' {
		var items []channelPayload
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return &Result{Async: true}, nil
		}
		payload = items[0]
	} else if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	result := &Result{
		ChannelTitle: strings.TrimSpace(payload.Title),
		Counts: model.Counts{
			Subscribers: payload.Subscribers.value,
			Views:       payload.Views.value,
			Videos:      payload.Videos.value,
		},
	}
	result.Async = !result.HasCounts()
	return result, nil
}

// flexCount 兼容数字与数字字符串，null 或空串为未知
type flexCount struct {
	value *int64
}

func (f *flexCount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		f.value = nil
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			f.value = nil
			return nil
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// 只接受整数值的浮点写法（1200.0、1.2e3）；"12.7" 或千分位 "1.234" 直接拒绝
		fl, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsInf(fl, 0) || fl != math.Trunc(fl) || math.Abs(fl) > math.MaxInt64 {
			return errors.Errorf("invalid count %q", raw)
		}
		n = int64(fl)
	}
	if n < 0 {
		return errors.Errorf("negative count %d", n)
	}
	f.value = &n
	return nil
}
