package model

import "encoding/json"

// Event is the routing pointer passed between pipeline stages. It carries no
// business payload: receivers always re-read current state from the store of
// record, so duplicate or reordered delivery is harmless.
type Event struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
}

// JSON returns the JSON-encoded event.
func (e *Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// ParseEvent decodes an event payload.
func ParseEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// PlanEvent routes a single plan to the placement stage.
type PlanEvent struct {
	PlanID int64 `json:"plan_id"`
}

// Queue message action tags. One queue carries several message kinds; the
// action tag selects the handler.
const (
	ActionPlacePlan = "place_plan"
)

// QueueMessage is the 2-tuple body carried by the durable queue.
type QueueMessage struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// NewQueueMessage builds a queue message with a JSON-encoded payload.
func NewQueueMessage(action string, payload any) (QueueMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return QueueMessage{}, err
	}
	return QueueMessage{Action: action, Payload: b}, nil
}

// Encode serializes the queue message body.
func (m *QueueMessage) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}

// DecodeQueueMessage parses a queue message body.
func DecodeQueueMessage(data []byte) (QueueMessage, error) {
	var m QueueMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
