package amqp

import (
	"encoding/json"
	"time"
)

// GroupSyncMessage tells the export worker that a group's ledger
// changed. It carries only the id and version; the worker loads the
// full group from the store, so a stale message is harmless.
type GroupSyncMessage struct {
	GroupID   string    `json:"group_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewGroupSyncMessage(groupID string, version int64) *GroupSyncMessage {
	return &GroupSyncMessage{
		GroupID:   groupID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *GroupSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func GroupSyncMessageFromJSON(data []byte) (*GroupSyncMessage, error) {
	var msg GroupSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
