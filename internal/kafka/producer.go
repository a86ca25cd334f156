package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// ActivityMessage is the notification emitted when a large transaction is
// recorded. The notification service consumes these to mail the
// compliance desk.
type ActivityMessage struct {
	UserID       string    `json:"user_id"`
	ActivityID   string    `json:"activity_id"`
	Type         string    `json:"type"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// Producer publishes large-transaction notifications to Kafka
type Producer struct {
	writer    *kafka.Writer
	threshold float64
	logger    *logrus.Logger
}

// NewProducer creates a Kafka producer. Only activities with an absolute
// amount at or above threshold are published.
func NewProducer(brokers []string, topic string, threshold float64, logger *logrus.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Compression:  kafka.Snappy,
		BatchTimeout: 10 * time.Millisecond,
	}

	logger.Infof("Kafka producer initialized for topic: %s", topic)

	return &Producer{
		writer:    writer,
		threshold: threshold,
		logger:    logger,
	}
}

// NotifyLargeActivity publishes a notification if the amount crosses the
// threshold. A nil producer (Kafka disabled) is a no-op.
func (p *Producer) NotifyLargeActivity(ctx context.Context, msg ActivityMessage) error {
	if p == nil {
		return nil
	}
	if math.Abs(msg.Amount) < p.threshold {
		p.logger.Debugf("Activity amount %.2f below threshold %.2f, skipping notification", msg.Amount, p.threshold)
		return nil
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	messageBytes, err := json.Marshal(msg)
	if err != nil {
		p.logger.Errorf("Failed to marshal Kafka message: %v", err)
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("user_" + msg.UserID),
		Value: messageBytes,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Errorf("Failed to send message to Kafka: %v", err)
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.Infof("Published large activity notification: user=%s type=%s amount=%.2f", msg.UserID, msg.Type, msg.Amount)
	return nil
}

// Close closes the underlying writer
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing Kafka producer")
	return p.writer.Close()
}
