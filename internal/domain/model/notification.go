package model

import (
	"encoding/json"
	"time"
)

const NotificationTypeNewResponse = "new_response"

type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewResponsePayload is the Data of a new_response notification.
type NewResponsePayload struct {
	DoubtID    string `json:"doubtId"`
	ResponseID string `json:"responseId"`
}
