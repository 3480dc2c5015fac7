package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/attribute"
	"github.com/fekuna/omnipos-attribute-service/internal/events"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CatalogListener drops cached category bindings when another instance
// reports a change to an attribute or a category's binding list.
type CatalogListener struct {
	consumer MessageReader
	schemas  attribute.SchemaInvalidator
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewCatalogListener(consumer MessageReader, schemas attribute.SchemaInvalidator, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		consumer: consumer,
		schemas:  schemas,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting catalog event listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping catalog event listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *CatalogListener) processMessage(ctx context.Context, value []byte) {
	var event events.CatalogEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal catalog event", zap.Error(err))
		return
	}

	switch event.EventType {
	case events.AttributeUpdated,
		events.AttributeDeleted,
		events.CategoryAttributesReplaced,
		events.CategoryDeleted:
	default:
		return
	}

	if len(event.Payload.CategoryIDs) == 0 {
		return
	}

	l.logger.Debug("Invalidating category bindings",
		zap.String("event_type", event.EventType),
		zap.String("event_id", event.EventID),
		zap.Strings("category_ids", event.Payload.CategoryIDs),
	)
	if err := l.schemas.InvalidateCategories(ctx, event.Payload.CategoryIDs...); err != nil {
		l.logger.Error("Failed to invalidate category bindings",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
