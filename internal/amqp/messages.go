package amqp

import (
	"encoding/json"
	"time"
)

// NoteSyncedMessage announces that a daily or weekly note was rewritten with
// fresh metrics. Durations are in seconds.
type NoteSyncedMessage struct {
	RunID          string    `json:"run_id"`
	Kind           string    `json:"kind"`
	Key            string    `json:"key"`
	Path           string    `json:"path"`
	Start          string    `json:"start"`
	End            string    `json:"end"`
	DaysWithData   int       `json:"days_with_data"`
	WorkSeconds    int64     `json:"work_seconds"`
	FocusSeconds   int64     `json:"focus_seconds"`
	MeetingSeconds int64     `json:"meeting_seconds"`
	BreakSeconds   int64     `json:"break_seconds"`
	TrackedSeconds int64     `json:"tracked_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *NoteSyncedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NoteSyncedMessageFromJSON creates a message from JSON bytes
func NoteSyncedMessageFromJSON(data []byte) (*NoteSyncedMessage, error) {
	var msg NoteSyncedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
