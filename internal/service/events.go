package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"marketplace-service/internal/entity"
)

const (
	EventOrderCreated = "created"
	EventOrderPaid    = "paid"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OrderEventKey builds the message key, e.g. order-created-1 or order-paid-1.
func OrderEventKey(event string, orderID int64) string {
	return fmt.Sprintf("order-%s-%d", event, orderID)
}

func publishOrderEvent(ctx context.Context, w MessageWriter, order *entity.Order, event string) error {
	if w == nil {
		return nil
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(OrderEventKey(event, order.ID)),
		Value: orderJSON,
	}
	return w.WriteMessages(ctx, msg)
}

// notifyOrderEvent publishes after the database commit; a failed publish is
// logged and never undoes the order.
func notifyOrderEvent(ctx context.Context, w MessageWriter, order *entity.Order, event string) {
	if err := publishOrderEvent(ctx, w, order, event); err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Str("event", event).Msg("Error publishing order event")
	}
}
