package amqp

import (
	"encoding/json"
	"time"
)

// ControlChangedMessage announces a new snapshot of a project. ControlID is
// empty when the change touched the project as a whole. The consumer loads
// the project itself; Version lets it skip stale notifications.
type ControlChangedMessage struct {
	ProjectID string    `json:"projectId"`
	ControlID string    `json:"controlId,omitempty"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewControlChangedMessage creates a change notification stamped now.
func NewControlChangedMessage(projectID, controlID string, version int64) *ControlChangedMessage {
	return &ControlChangedMessage{
		ProjectID: projectID,
		ControlID: controlID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON encodes the message body.
func (m *ControlChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ControlChangedMessageFromJSON decodes a message body.
func ControlChangedMessageFromJSON(data []byte) (*ControlChangedMessage, error) {
	var msg ControlChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
