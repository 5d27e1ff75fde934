package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ytscript-backend/internal/apperr"
	"ytscript-backend/internal/export"
	"ytscript-backend/internal/middleware"
	"ytscript-backend/internal/models"
	"ytscript-backend/internal/repository"
)

type transcriptRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TranscriptRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]*models.TranscriptRecord, int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type usageRepository interface {
	CountSince(ctx context.Context, userID uuid.UUID, action string, since time.Time) (int, error)
}

type TranscriptHandler struct {
	transcriptRepo transcriptRepository
	usageRepo      usageRepository
	extractor      extractor
}

func NewTranscriptHandler(transcriptRepo *repository.TranscriptRepo, usageRepo *repository.UsageRepo, ext extractor) *TranscriptHandler {
	return &TranscriptHandler{
		transcriptRepo: transcriptRepo,
		usageRepo:      usageRepo,
		extractor:      ext,
	}
}

func (h *TranscriptHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := h.transcriptRepo.ListByUser(r.Context(), userID, search, limit, offset)
	if err != nil {
		handleServiceError(w, r, apperr.Internal(err))
		return
	}
	if records == nil {
		records = []*models.TranscriptRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transcripts": records,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}

func (h *TranscriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownedRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Export re-renders a stored transcript and sends the file itself.
func (h *TranscriptHandler) Export(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownedRecord(w, r)
	if !ok {
		return
	}
	if rec.Status != models.StatusCompleted {
		handleServiceError(w, r, apperr.Validation("Transcript is not ready for export").WithDetail("status", rec.Status))
		return
	}

	noTimestamps := r.URL.Query().Get("timestamps") == "false"
	out, err := h.extractor.Export(r.Context(), rec, chi.URLParam(r, "format"), middleware.GetPlan(r.Context()), noTimestamps)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(rec.Title, out.Format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

func (h *TranscriptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTranscriptID(w, r)
	if !ok {
		return
	}
	userID := middleware.GetUserID(r.Context())

	if err := h.transcriptRepo.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			handleServiceError(w, r, apperr.NotFound("Transcript"))
			return
		}
		handleServiceError(w, r, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transcript deleted"})
}

// Usage reports how many extractions and exports the caller ran recently.
func (h *TranscriptHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	days := queryInt(r, "days", 30)
	if days <= 0 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	since := time.Now().AddDate(0, 0, -days)

	extractions, err := h.usageRepo.CountSince(r.Context(), userID, "transcript_extraction", since)
	if err != nil {
		handleServiceError(w, r, apperr.Internal(err))
		return
	}
	exports, err := h.usageRepo.CountSince(r.Context(), userID, "transcript_export", since)
	if err != nil {
		handleServiceError(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":        days,
		"since":       since.UTC().Format(time.RFC3339),
		"extractions": extractions,
		"exports":     exports,
		"plan":        middleware.GetPlan(r.Context()),
	})
}

// ownedRecord loads the {id} record. Records of other users are reported as
// missing.
func (h *TranscriptHandler) ownedRecord(w http.ResponseWriter, r *http.Request) (*models.TranscriptRecord, bool) {
	id, ok := parseTranscriptID(w, r)
	if !ok {
		return nil, false
	}

	rec, err := h.transcriptRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			handleServiceError(w, r, apperr.NotFound("Transcript"))
			return nil, false
		}
		handleServiceError(w, r, apperr.Internal(err))
		return nil, false
	}
	if rec.UserID != middleware.GetUserID(r.Context()) {
		handleServiceError(w, r, apperr.NotFound("Transcript"))
		return nil, false
	}
	return rec, true
}

func parseTranscriptID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_FAILED", "Invalid transcript ID", r))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
