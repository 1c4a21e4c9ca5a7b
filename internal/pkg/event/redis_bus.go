package event

import (
	"Vigia/internal/pkg/consts"
	"Vigia/internal/pkg/redis"
	"context"
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
)

const subscriptionBuffer = 16

type RedisBus struct {
	channel string
}

// NewRedisBus 通过 Redis Pub/Sub 广播变更，多实例部署时所有节点都能收到
func NewRedisBus() *RedisBus {
	return &RedisBus{channel: consts.CompetitorEventsChannel}
}

func (b *RedisBus) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return redis.Publish(ctx, b.channel, payload)
}

func (b *RedisBus) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := redis.Subscribe(ctx, b.channel)
	// 等待订阅确认
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Change, subscriptionBuffer)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Warn("invalid change payload", "channel", msg.Channel, "err", err)
					continue
				}
				// 客户端不再读取时 Close 仍能让 goroutine 退出
				select {
				case out <- change:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	var closeErr error
	closeFn := func() error {
		once.Do(func() {
			close(done)
			closeErr = pubsub.Close()
			<-finished
		})
		return closeErr
	}
	return &Subscription{C: out, close: closeFn}, nil
}
