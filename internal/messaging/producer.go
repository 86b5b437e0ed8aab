package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpattn/stockhist/internal/config"
	"github.com/rpattn/stockhist/internal/events"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OutcomePublisher emits terminal success/failure events back to the flow
// that requested a history record.
type OutcomePublisher interface {
	PublishSuccess(ctx context.Context, event events.HistorySuccessEvent) error
	PublishFailure(ctx context.Context, event events.HistoryFailedEvent) error
}

// Producer publishes outcome events on two topics. Sends are asynchronous;
// delivery results arrive on the writer completion callback and are only
// logged, never retried here.
type Producer struct {
	successWriter *kafka.Writer
	failedWriter  *kafka.Writer
	logger        *zap.Logger
}

// NewProducer builds writers for the success and failed outcome topics.
func NewProducer(cfg config.Kafka, logger *zap.Logger) *Producer {
	p := &Producer{logger: logger}
	p.successWriter = p.newWriter(cfg.Brokers, cfg.SuccessTopic)
	p.failedWriter = p.newWriter(cfg.Brokers, cfg.FailedTopic)
	return p
}

func (p *Producer) newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			for _, msg := range messages {
				if err != nil {
					p.logger.Error("outcome event delivery failed",
						zap.String("topic", topic),
						zap.ByteString("key", msg.Key),
						zap.Error(err),
					)
					continue
				}
				p.logger.Info("outcome event delivered",
					zap.String("topic", topic),
					zap.ByteString("key", msg.Key),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
		},
	}
}

// PublishSuccess sends a success outcome keyed by order id.
func (p *Producer) PublishSuccess(ctx context.Context, event events.HistorySuccessEvent) error {
	return p.publish(ctx, p.successWriter, events.OrderKey(event.OrderID), event)
}

// PublishFailure sends a failure outcome keyed by order id.
func (p *Producer) PublishFailure(ctx context.Context, event events.HistoryFailedEvent) error {
	return p.publish(ctx, p.failedWriter, events.OrderKey(event.OrderID), event)
}

func (p *Producer) publish(ctx context.Context, writer *kafka.Writer, key []byte, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome event: %w", err)
	}

	// Async writer: this queues the message and returns; the completion
	// callback observes the actual delivery result.
	if err := writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload}); err != nil {
		return fmt.Errorf("failed to queue outcome event: %w", err)
	}

	return nil
}

// Close flushes and closes both writers.
func (p *Producer) Close() error {
	var firstErr error
	if err := p.successWriter.Close(); err != nil {
		firstErr = err
	}
	if err := p.failedWriter.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
