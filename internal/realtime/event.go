package realtime

import "time"

// EventType 对应存储层的三种变更。
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one entry of the change feed pushed to subscribed clients.
// Delivery is best-effort: consumers must merge idempotently (insert-or-replace
// by id, remove by id) and resolve conflicts last-write-wins on UpdatedAt.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	Table     string    `json:"table"`
	Record    any       `json:"record"`
	Timestamp time.Time `json:"timestamp"`
}
