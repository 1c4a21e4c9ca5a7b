package kafka

import (
	"Vigia/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 Kafka 消费者
type ConsumerManager struct {
	metricsConsumer sarama.ConsumerGroup
	metricsHandler  sarama.ConsumerGroupHandler
	metricsTopic    string
}

func NewConsumerManager(cfg *config.Config, invalidator MetricInvalidator) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	metricsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaMetricConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		metricsConsumer: metricsConsumer,
		metricsHandler:  NewMetricsHandler(invalidator),
		metricsTopic:    cfg.KafkaMetricConsumer.Topic,
	}, nil
}

// Start 阻塞直到 ctx 取消
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.metricsConsumer.Errors() {
			log.Error("Error from consumer group", "err", err)
		}
	}()

	go func() {
		log.Info("Competitor metrics consumer started", "topic", m.metricsTopic)
		for {
			if err := m.metricsConsumer.Consume(ctx, []string{m.metricsTopic}, m.metricsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.metricsConsumer.Close(); err != nil {
		log.Error("Failed to close metrics consumer", "err", err)
		return err
	}
	return nil
}
