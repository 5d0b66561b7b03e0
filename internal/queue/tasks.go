// Package queue enqueues and handles background sync tasks over Redis.
package queue

import (
	"encoding/json"
	"fmt"
)

// Task types
const (
	TypeSyncUser = "sync:user"
	TypeSyncAll  = "sync:all"
)

// SyncUserPayload is the payload for single-user sync tasks
type SyncUserPayload struct {
	UserID    string `json:"user_id"`
	Requested string `json:"requested_at"`
}

// NewSyncUserTask creates a new single-user sync task payload
func NewSyncUserTask(userID, requestedAt string) (*SyncUserPayload, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	return &SyncUserPayload{
		UserID:    userID,
		Requested: requestedAt,
	}, nil
}

// Marshal serializes the payload to JSON
func (p *SyncUserPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalSyncUserPayload deserializes JSON to payload
func UnmarshalSyncUserPayload(data []byte) (*SyncUserPayload, error) {
	var payload SyncUserPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}

// SyncAllPayload is the payload for full sync tasks
type SyncAllPayload struct {
	Requested string `json:"requested_at"`
}

// Marshal serializes the payload to JSON
func (p *SyncAllPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalSyncAllPayload deserializes JSON to payload
func UnmarshalSyncAllPayload(data []byte) (*SyncAllPayload, error) {
	var payload SyncAllPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}
