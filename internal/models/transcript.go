package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// ParsePlan maps a claim value onto a plan tier; anything unknown is FREE.
func ParsePlan(s string) Plan {
	if strings.EqualFold(strings.TrimSpace(s), string(PlanPro)) {
		return PlanPro
	}
	return PlanFree
}

const (
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

type TranscriptRecord struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	VideoID        string          `json:"video_id"`
	URL            string          `json:"url"`
	Title          string          `json:"title"`
	Channel        string          `json:"channel"`
	Duration       int             `json:"duration"`
	Language       string          `json:"language"`
	TranscriptText string          `json:"transcript_text"`
	SegmentsJSON   json.RawMessage `json:"segments,omitempty"`
	WordCount      int             `json:"word_count"`
	Formats        []string        `json:"formats"`
	Status         string          `json:"status"`
	ErrorCode      *string         `json:"error_code"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type UsageLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Action    string    `json:"action"` // "transcript_extraction" | "transcript_export"
	VideoID   string    `json:"video_id"`
	Formats   []string  `json:"formats"`
	CreatedAt time.Time `json:"created_at"`
}

type ExtractRequest struct {
	URL            string   `json:"url"`
	Language       string   `json:"language"`
	Formats        []string `json:"formats"`
	IncludeSummary bool     `json:"includeSummary"`
	SummaryType    string   `json:"summaryType"`
	NoTimestamps   bool     `json:"noTimestamps"`
}

type ExtractMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	WordCount    int    `json:"word_count"`
	Language     string `json:"language"`
	Duration     int    `json:"duration"`
	SegmentCount int    `json:"segment_count"`
}

type ExtractResponse struct {
	Success        bool                   `json:"success"`
	TranscriptID   *uuid.UUID             `json:"transcript_id,omitempty"`
	VideoID        string                 `json:"video_id"`
	Metadata       ExtractMetadata        `json:"metadata"`
	Transcript     string                 `json:"transcript"`
	TranscriptText string                 `json:"transcript_text"`
	Formats        map[string]interface{} `json:"formats"`
	AISummary      *TranscriptSummary     `json:"ai_summary,omitempty"`
	SummaryError   *APIError              `json:"summary_error,omitempty"`
}

// BinaryPayload carries pdf, docx and xlsx output across the JSON boundary.
type BinaryPayload struct {
	Data        string `json:"data"`
	Encoding    string `json:"encoding"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
}

// FormatError replaces a format payload that was not produced.
type FormatError struct {
	Error FormatErrorBody `json:"error"`
}

type FormatErrorBody struct {
	Code            string `json:"code"`
	Message         string `json:"message"`
	UpgradeRequired bool   `json:"upgrade_required"`
}
