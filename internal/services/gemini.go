package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ytscript-backend/internal/models"
)

// Summarizer produces the PRO AI summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text, summaryType string) (*models.TranscriptSummary, error)
}

// PlaceholderSummarizer is used when no model API key is configured.
type PlaceholderSummarizer struct{}

func (PlaceholderSummarizer) Summarize(_ context.Context, _ string, summaryType string) (*models.TranscriptSummary, error) {
	return &models.TranscriptSummary{
		Text:      "AI-generated summary would go here",
		KeyPoints: []string{"Point 1", "Point 2", "Point 3"},
		Type:      summaryType,
	}, nil
}

const maxSummaryInputChars = 120000

type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"

	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiService) Summarize(ctx context.Context, text, summaryType string) (*models.TranscriptSummary, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	text = truncateUTF8(text, maxSummaryInputChars)

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildSummaryPrompt(text, summaryType)))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	summary, err := parseSummaryJSON(extractText(resp))
	if err != nil {
		return nil, err
	}
	summary.Type = summaryType
	return summary, nil
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func buildSummaryPrompt(text, summaryType string) string {
	style := map[string]string{
		"concise":   "a short paragraph of 3-5 sentences",
		"detailed":  "several paragraphs covering every major topic",
		"bullet":    "a bullet-style list of the main ideas written as prose",
		"chapter":   "a chapter-by-chapter walkthrough in the order topics appear",
		"academic":  "a formal abstract suitable for a literature review",
		"executive": "an executive brief focused on decisions and outcomes",
	}[summaryType]
	if style == "" {
		style = "a short paragraph of 3-5 sentences"
	}

	return fmt.Sprintf(`Summarize this YouTube video transcript as %s.
Return ONLY a valid JSON object: {"text": "the summary", "key_points": ["point 1", "point 2", "point 3"]}
Use between 3 and 7 key points. Do not use markdown.

Transcript:
%s`, style, text)
}

func parseSummaryJSON(raw string) (*models.TranscriptSummary, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var out struct {
		Text      string   `json:"text"`
		KeyPoints []string `json:"key_points"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini summary: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("Gemini returned an empty summary")
	}
	if out.KeyPoints == nil {
		out.KeyPoints = []string{}
	}
	return &models.TranscriptSummary{Text: out.Text, KeyPoints: out.KeyPoints}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
