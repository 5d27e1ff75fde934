package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	RequestID uuid.UUID `json:"request_id"`
	VideoID   string    `json:"video_id,omitempty"`
	State     string    `json:"state"`
	Step      int       `json:"step"`
	StepName  string    `json:"step_name"`
}

type CompletedEvent struct {
	RequestID    uuid.UUID `json:"request_id"`
	TranscriptID uuid.UUID `json:"transcript_id"`
	VideoID      string    `json:"video_id"`
	WordCount    int       `json:"word_count"`
}

type ErrorEvent struct {
	RequestID    uuid.UUID `json:"request_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
