package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"ytscript-backend/internal/export"
	"ytscript-backend/internal/middleware"
	"ytscript-backend/internal/models"
	"ytscript-backend/internal/services"
)

type extractor interface {
	Extract(ctx context.Context, req services.ExtractionRequest) (*services.ExtractionResult, error)
	Export(ctx context.Context, rec *models.TranscriptRecord, format string, plan models.Plan, noTimestamps bool) (services.FormatOutput, error)
}

type ExtractionHandler struct {
	extractor extractor
}

func NewExtractionHandler(orchestrator *services.Orchestrator) *ExtractionHandler {
	return &ExtractionHandler{extractor: orchestrator}
}

func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_FAILED", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.URL) == "" {
		fields["url"] = "URL is required"
	}
	if req.SummaryType != "" && !models.IsValidSummaryType(req.SummaryType) {
		fields["summaryType"] = "Must be one of: " + strings.Join(models.SummaryTypes, ", ")
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_FAILED", "Validation failed", fields, r))
		return
	}

	res, err := h.extractor.Extract(r.Context(), services.ExtractionRequest{
		URL:            req.URL,
		Language:       req.Language,
		Formats:        req.Formats,
		Plan:           middleware.GetPlan(r.Context()),
		IncludeSummary: req.IncludeSummary,
		SummaryType:    req.SummaryType,
		NoTimestamps:   req.NoTimestamps,
		UserID:         middleware.GetUserID(r.Context()),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, buildExtractResponse(res))
}

// Formats lists the output formats and which plan they need.
func (h *ExtractionHandler) Formats(w http.ResponseWriter, r *http.Request) {
	formats := make([]map[string]interface{}, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		renderer, _ := export.Lookup(f)
		plan := models.PlanFree
		if services.IsPremiumFormat(f) {
			plan = models.PlanPro
		}
		formats = append(formats, map[string]interface{}{
			"format":       f,
			"content_type": renderer.ContentType(),
			"extension":    renderer.Extension(),
			"binary":       export.IsBinary(f),
			"plan":         plan,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"formats": formats})
}

func buildExtractResponse(res *services.ExtractionResult) models.ExtractResponse {
	text := res.Text()
	resp := models.ExtractResponse{
		Success:      true,
		TranscriptID: res.TranscriptID,
		VideoID:      res.VideoID,
		Metadata: models.ExtractMetadata{
			VideoID:      res.VideoID,
			Title:        res.Metadata.Title,
			Channel:      res.Metadata.Channel,
			WordCount:    res.WordCount(),
			Language:     res.Metadata.Language,
			Duration:     res.Metadata.Duration,
			SegmentCount: res.Transcript.Len(),
		},
		Transcript:     text,
		TranscriptText: text,
		Formats:        make(map[string]interface{}, len(res.Outputs)),
		AISummary:      res.Summary,
	}
	for f, out := range res.Outputs {
		resp.Formats[string(f)] = encodeSlot(out, res.Metadata.Title)
	}
	if res.SummaryErr != nil {
		resp.SummaryError = &models.APIError{
			Code:    string(res.SummaryErr.Code),
			Message: res.SummaryErr.Message,
		}
	}
	return resp
}

// encodeSlot shapes one format output for the JSON response.
func encodeSlot(out services.FormatOutput, title string) interface{} {
	if !out.OK() {
		return models.FormatError{Error: models.FormatErrorBody{
			Code:            string(out.Err.Code),
			Message:         out.Err.Message,
			UpgradeRequired: out.Err.UpgradeRequired(),
		}}
	}
	switch {
	case out.Format == export.FormatJSON:
		return json.RawMessage(out.Data)
	case export.IsBinary(out.Format):
		return models.BinaryPayload{
			Data:        base64.StdEncoding.EncodeToString(out.Data),
			Encoding:    "base64",
			ContentType: out.ContentType,
			Filename:    export.Filename(title, out.Format),
		}
	default:
		return string(out.Data)
	}
}
