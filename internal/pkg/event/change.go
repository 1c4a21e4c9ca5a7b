package event

import (
	"context"
	"time"
)

// ChangeToken 某个集合的变更版本号，前端据此判断是否需要重新拉取
type ChangeToken struct {
	Collection string `json:"collection"`
	Version    int64  `json:"version"`
}

// Change 一次成功写操作的通知
type Change struct {
	ChangeToken
	Action string    `json:"action"`
	IDs    []uint64  `json:"ids,omitempty"`
	At     time.Time `json:"at"`
}

// Bus 变更通知总线
type Bus interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(ctx context.Context) (*Subscription, error)
}

// Subscription C 在 Close 之后关闭
type Subscription struct {
	C     <-chan Change
	close func() error
}

func (s *Subscription) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
