package kafka

import (
	"Vigia/internal/pkg/consts"
	"context"
	"errors"
	log "log/slog"

	"github.com/IBM/sarama"
)

// MetricInvalidator 指标缓存失效
type MetricInvalidator interface {
	InvalidateFor(ctx context.Context, competitorID uint64) error
}

// MetricsHandler 消费 competitor_metrics 表的 binlog，外部直接写库时也能刷新缓存并通知前端
type MetricsHandler struct {
	invalidator MetricInvalidator
}

func NewMetricsHandler(invalidator MetricInvalidator) *MetricsHandler {
	return &MetricsHandler{invalidator: invalidator}
}

func (s *MetricsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("competitor metrics consumer setup")
	return nil
}

func (s *MetricsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("competitor metrics consumer cleanup")
	return nil
}

func (s *MetricsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessageBatch(session, claim, s.logic)
}

// logic 与本表无关或无法解析的消息直接跳过
func (s *MetricsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, consts.CollectionCompetitorMetrics)
	if err != nil {
		if !errors.Is(err, ErrTableMismatch) && !errors.Is(err, ErrEmptyData) {
			log.WarnContext(ctx, "skip invalid canal message", "offset", msg.Offset, "err", err)
		}
		return nil
	}
	if !canalMsg.IsDML() {
		return nil
	}

	seen := make(map[uint64]struct{}, len(canalMsg.Data))
	for _, row := range canalMsg.Data {
		id, ok := Uint64Column(row, "competitor_id")
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if err := s.invalidator.InvalidateFor(ctx, id); err != nil {
			return err
		}
		seen[id] = struct{}{}
	}
	return nil
}
