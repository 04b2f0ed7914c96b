package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ProductEvicter interface {
	Delete(ctx context.Context, slugs ...string) error
}

// Consumer listens for order events and evicts the cached products an order
// touched, so cached stock never outlives a checkout.
type Consumer struct {
	reader  MessageReader
	cache   ProductEvicter
	backoff time.Duration
}

func NewConsumer(reader MessageReader, cache ProductEvicter) *Consumer {
	return &Consumer{reader: reader, cache: cache, backoff: time.Second}
}

// Start blocks until ctx is cancelled or the reader is closed.
func (c *Consumer) Start(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Info().Msg("order event consumer stopped")
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage handles one order event; key -> "order-created-<id>" or
// "order-paid-<id>".
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	parts := strings.Split(string(msg.Key), "-")
	if len(parts) != 3 || parts[0] != "order" {
		log.Warn().Msgf("Unknown message key: %s", msg.Key)
		return
	}

	switch parts[1] {
	case service.EventOrderCreated:
		var order entity.Order
		if err := json.Unmarshal(msg.Value, &order); err != nil {
			log.Error().Msgf("Error unmarshalling message: %v", err)
			return
		}

		slugs := order.ProductSlugs()
		if len(slugs) == 0 {
			return
		}
		if err := c.cache.Delete(ctx, slugs...); err != nil {
			log.Error().Msgf("Error evicting products for order %d: %v", order.ID, err)
			return
		}
		log.Debug().Int64("order_id", order.ID).Strs("slugs", slugs).Msg("evicted ordered products")
	case service.EventOrderPaid:
		log.Debug().Msgf("order %s paid", parts[2])
	default:
		log.Warn().Msgf("Unknown order event: %s", parts[1])
	}
}
