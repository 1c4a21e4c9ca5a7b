package event

import (
	"context"
	"sync"
)

// MemoryBus 进程内实现，未连接 Redis 时或测试中使用
type MemoryBus struct {
	mu        sync.Mutex
	subs      map[chan Change]struct{}
	published []Change
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[chan Change]struct{})}
}

// Publish 订阅者缓冲区满时丢弃，不阻塞写路径
func (b *MemoryBus) Publish(_ context.Context, change Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, change)
	for ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context) (*Subscription, error) {
	ch := make(chan Change, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return &Subscription{C: ch, close: func() error {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
		return nil
	}}, nil
}

// Published 已发布变更的副本
func (b *MemoryBus) Published() []Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Change, len(b.published))
	copy(out, b.published)
	return out
}
