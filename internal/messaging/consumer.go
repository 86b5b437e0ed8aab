package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/stockhist/internal/config"
	"github.com/rpattn/stockhist/internal/domain"
	"github.com/rpattn/stockhist/internal/events"
	"github.com/rpattn/stockhist/internal/history"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// registeredMessage is the fixed confirmation carried on success outcomes.
const registeredMessage = "receiving history registered"

// Registrar persists one history record per accepted event.
type Registrar interface {
	Register(ctx context.Context, req history.RegisterRequest) (history.RegisterResponse, error)
}

// MessageReader is the slice of kafka.Reader the consumer depends on.
// Commits are explicit: a message is only acknowledged after its outcome is
// decided.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader builds the group reader for the history request topic.
func NewReader(cfg config.Kafka) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.RequestTopic,
		GroupID: cfg.GroupID,
	})
}

// Consumer drives the ingestion pipeline: fetch a history request, persist
// it, publish the outcome, then commit. Persist failures leave the message
// uncommitted so the broker's redelivery policy governs retries.
type Consumer struct {
	reader    MessageReader
	registrar Registrar
	publisher OutcomePublisher
	logger    *zap.Logger
}

// NewConsumer wires the ingestion consumer.
func NewConsumer(reader MessageReader, registrar Registrar, publisher OutcomePublisher, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:    reader,
		registrar: registrar,
		publisher: publisher,
		logger:    logger,
	}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("history request consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("context done, exiting consume loop")
				return nil
			}
			c.logger.Error("failed to fetch message", zap.Error(err))
			continue
		}

		if err := c.Handle(ctx, msg); err != nil {
			// Logged in Handle; the message stays uncommitted so the broker
			// redelivers it.
			continue
		}
	}
}

// Handle processes one inbound history request end to end.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.HistoryRequestedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return c.handlePoison(ctx, msg, err)
	}

	attemptID := event.ApprovalAttemptID
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	c.logger.Info("history request received",
		zap.Int64p("order_id", event.OrderID),
		zap.Stringp("order_number", event.OrderNumber),
		zap.Int64("member_id", event.MemberID),
		zap.String("attempt_id", attemptID),
		zap.Int64("offset", msg.Offset),
		zap.Int("partition", msg.Partition),
	)

	req := history.RegisterRequest{
		MemberID:    event.MemberID,
		OrderID:     event.OrderID,
		OrderNumber: event.OrderNumber,
		Message:     event.Message,
		Status:      event.Status,
		Type:        domain.MovementType(event.Type),
	}
	for _, item := range event.Items {
		req.Items = append(req.Items, history.RegisterItem{
			PartID:   item.PartID,
			Quantity: item.Quantity,
		})
	}

	if _, err := c.registrar.Register(ctx, req); err != nil {
		c.logger.Error("failed to persist history request",
			zap.Int64p("order_id", event.OrderID),
			zap.String("attempt_id", attemptID),
			zap.Error(err),
		)

		failure := events.HistoryFailedEvent{
			OrderID:           event.OrderID,
			OrderNumber:       event.OrderNumber,
			ApprovalAttemptID: attemptID,
			ErrorMessage:      err.Error(),
			Data:              event,
		}
		if pubErr := c.publisher.PublishFailure(ctx, failure); pubErr != nil {
			c.logger.Error("failed to publish failure outcome", zap.Error(pubErr))
		}

		return fmt.Errorf("failed to persist history request: %w", err)
	}

	success := events.HistorySuccessEvent{
		OrderID:           event.OrderID,
		OrderNumber:       event.OrderNumber,
		ApprovalAttemptID: attemptID,
		Message:           registeredMessage,
	}
	if err := c.publisher.PublishSuccess(ctx, success); err != nil {
		// Delivery is fire and forget once the record is durable; the
		// record stays committed either way.
		c.logger.Error("failed to publish success outcome", zap.Error(err))
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message", zap.Error(err))
		return fmt.Errorf("failed to commit message: %w", err)
	}

	c.logger.Info("history request processed",
		zap.Int64p("order_id", event.OrderID),
		zap.String("attempt_id", attemptID),
	)

	return nil
}

// handlePoison commits an undecodable message so it is not redelivered
// forever, publishing a failure outcome when an order id is recoverable.
func (c *Consumer) handlePoison(ctx context.Context, msg kafka.Message, decodeErr error) error {
	c.logger.Error("dropping undecodable history request",
		zap.Int64("offset", msg.Offset),
		zap.Int("partition", msg.Partition),
		zap.Error(decodeErr),
	)

	var partial struct {
		OrderID           *int64  `json:"orderId"`
		OrderNumber       *string `json:"orderNumber"`
		ApprovalAttemptID string  `json:"approvalAttemptId"`
	}
	if err := json.Unmarshal(msg.Value, &partial); err == nil && partial.OrderID != nil {
		failure := events.HistoryFailedEvent{
			OrderID:           partial.OrderID,
			OrderNumber:       partial.OrderNumber,
			ApprovalAttemptID: partial.ApprovalAttemptID,
			ErrorMessage:      fmt.Sprintf("invalid history request payload: %v", decodeErr),
		}
		if pubErr := c.publisher.PublishFailure(ctx, failure); pubErr != nil {
			c.logger.Error("failed to publish failure outcome", zap.Error(pubErr))
		}
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit poison message", zap.Error(err))
		return fmt.Errorf("failed to commit poison message: %w", err)
	}

	return nil
}
