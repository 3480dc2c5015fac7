// Package events defines the catalog change events exchanged between
// service instances.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	AttributeUpdated           = "AttributeUpdated"
	AttributeDeleted           = "AttributeDeleted"
	CategoryAttributesReplaced = "CategoryAttributesReplaced"
	CategoryDeleted            = "CategoryDeleted"
)

type CatalogEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   CatalogPayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type CatalogPayload struct {
	AttributeID string   `json:"attribute_id,omitempty"`
	CategoryIDs []string `json:"category_ids"`
	Actor       string   `json:"actor,omitempty"`
}

func New(eventType string, payload CatalogPayload) *CatalogEvent {
	return &CatalogEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Key is the partition key: the attribute for attribute events, else the
// first category.
func (e *CatalogEvent) Key() string {
	if e.Payload.AttributeID != "" {
		return e.Payload.AttributeID
	}
	if len(e.Payload.CategoryIDs) > 0 {
		return e.Payload.CategoryIDs[0]
	}
	return e.EventID
}

type Publisher interface {
	Publish(ctx context.Context, evt *CatalogEvent) error
}

type jsonProducer interface {
	PublishJSON(ctx context.Context, key string, v interface{}) error
}

type brokerPublisher struct {
	producer jsonProducer
}

// NewBrokerPublisher publishes events through a broker producer such as
// *broker.KafkaProducer.
func NewBrokerPublisher(p jsonProducer) Publisher {
	return &brokerPublisher{producer: p}
}

func (p *brokerPublisher) Publish(ctx context.Context, evt *CatalogEvent) error {
	return p.producer.PublishJSON(ctx, evt.Key(), evt)
}

type nopPublisher struct{}

// NopPublisher drops every event. Used when Kafka is disabled.
func NopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, *CatalogEvent) error { return nil }
