package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeType names the mutation an ExpenseChangeMessage reports.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ExpenseChangeMessage notifies consumers that an expense changed.
// It carries only the id; consumers read the current record themselves.
type ExpenseChangeMessage struct {
	Type      ChangeType `json:"type"`
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewExpenseChangeMessage(kind ChangeType, id string) *ExpenseChangeMessage {
	return &ExpenseChangeMessage{
		Type:      kind,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey returns the key the message is published under, e.g. "expense.created".
func (m *ExpenseChangeMessage) RoutingKey() string {
	return "expense." + string(m.Type)
}

func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON decodes and checks a message body.
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		return nil, fmt.Errorf("unknown change type %q", msg.Type)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("change message without id")
	}
	return &msg, nil
}
