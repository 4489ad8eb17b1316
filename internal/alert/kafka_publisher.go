package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"golink-redirect/internal/dto"
)

// messageWriter *kafka.Writer 的最小接口，便于测试替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 把点击告警写入 Kafka，由下游邮件服务消费
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishClickAlert 以 slug 作为 key，保证同一短链的告警进入同一分区
func (p *KafkaPublisher) PublishClickAlert(ctx context.Context, alert dto.ClickAlert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode click alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.Slug),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("click")},
			{Key: "timestamp", Value: []byte(alert.Ts.Format(time.RFC3339))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write click alert: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
