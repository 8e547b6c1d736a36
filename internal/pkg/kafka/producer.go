package kafka

import (
	"Chirper/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// Producer 将每次运行的结果事件推送到 Kafka，供下游分析消费。
// 未配置 broker 时 NewProducer 返回 nil，调用方按可选组件处理。
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("Kafka brokers 未配置，结果事件推送关闭")
		return nil, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer: producer,
		topic:    cfg.Topic,
	}, nil
}

// Publish 序列化 payload 并发送，key 用于分区路由
func (s *Producer) Publish(ctx context.Context, key string, payload any) error {
	if s == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		log.ErrorContext(ctx, "Kafka 消息发送失败", "topic", s.topic, "err", err)
		return err
	}

	log.InfoContext(ctx, "Kafka 消息发送成功",
		"topic", s.topic,
		"partition", partition,
		"offset", offset)
	return nil
}

func (s *Producer) Close() error {
	if s == nil {
		return nil
	}
	return s.producer.Close()
}
