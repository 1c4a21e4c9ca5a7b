package service

import (
	"Vigia/internal/pkg/consts"
	"Vigia/internal/pkg/event"
	"Vigia/internal/pkg/redis"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

var versionKeys = map[string]string{
	consts.CollectionCompetitors:       consts.CompetitorVersionKey,
	consts.CollectionCompetitorMetrics: consts.CompetitorMetricsVersionKey,
}

// changeNotifier 写操作成功后递增集合版本号并广播
type changeNotifier struct {
	cache redis.Cache
	bus   event.Bus
}

func newChangeNotifier(cache redis.Cache, bus event.Bus) *changeNotifier {
	return &changeNotifier{cache: cache, bus: bus}
}

// notify 版本号递增失败时 Version 为 0，前端应无条件刷新
func (n *changeNotifier) notify(ctx context.Context, collection, action string, ids []uint64) event.ChangeToken {
	token := event.ChangeToken{Collection: collection}
	version, err := n.cache.Incr(ctx, versionKeys[collection])
	if err != nil {
		log.WarnContext(ctx, "bump collection version failed", "collection", collection, "err", err)
	} else {
		token.Version = version
	}

	change := event.Change{
		ChangeToken: token,
		Action:      action,
		IDs:         ids,
		At:          time.Now().UTC(),
	}
	if err := n.bus.Publish(ctx, change); err != nil {
		log.WarnContext(ctx, "publish change failed", "collection", collection, "action", action, "err", err)
	}
	return token
}

func (n *changeNotifier) current(ctx context.Context, collection string) (event.ChangeToken, error) {
	version, err := n.cache.GetInt(ctx, versionKeys[collection])
	if err != nil {
		return event.ChangeToken{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return event.ChangeToken{Collection: collection, Version: version}, nil
}
