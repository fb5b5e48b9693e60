package models

import "time"

// Event types
const (
	EventTypeRuleChanged   = "RULE_CHANGED"
	EventTypeRecordChanged = "RECORD_CHANGED"
)

// Change actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// RuleChangedEvent is published whenever an adjustment rule for a table is
// created or deleted. Peer instances drop their cached rule lists for the
// table on receipt.
type RuleChangedEvent struct {
	BaseEvent
	Table  string `json:"table"`
	RuleID int64  `json:"rule_id,omitempty"`
	Action string `json:"action"`
}

// RecordChangedEvent is published whenever an inventory row is written, so
// cached listings for the table are dropped everywhere.
type RecordChangedEvent struct {
	BaseEvent
	Table    string `json:"table"`
	RecordID string `json:"record_id,omitempty"`
	Action   string `json:"action"`
}
