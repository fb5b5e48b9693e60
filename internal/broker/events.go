package broker

import (
	"context"
	"time"

	"pricing-portal/internal/models"

	"github.com/google/uuid"
)

// EventPublisher publishes catalog change events so peer instances can drop
// their table-scoped caches.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishRuleChanged publishes a RuleChanged event keyed by table so changes
// to one table stay ordered.
func (ep *EventPublisher) PublishRuleChanged(ctx context.Context, table string, ruleID int64, action string) error {
	event := &models.RuleChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRuleChanged,
			Timestamp: time.Now(),
		},
		Table:  table,
		RuleID: ruleID,
		Action: action,
	}
	return ep.producer.PublishEvent(ctx, "table-"+table, event)
}

// PublishRecordChanged publishes a RecordChanged event keyed by table.
func (ep *EventPublisher) PublishRecordChanged(ctx context.Context, table, recordID, action string) error {
	event := &models.RecordChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRecordChanged,
			Timestamp: time.Now(),
		},
		Table:    table,
		RecordID: recordID,
		Action:   action,
	}
	return ep.producer.PublishEvent(ctx, "table-"+table, event)
}
