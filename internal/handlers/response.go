package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"ytscript-backend/internal/apperr"
	"ytscript-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeInsufficientPlan:
		return http.StatusForbidden
	case apperr.CodeUnavailable, apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeExtraction:
		return http.StatusUnprocessableEntity
	case apperr.CodeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError writes err as an ErrorResponse. Causes are logged,
// never sent.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Printf("Unhandled error on %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp(string(apperr.CodeInternal), "An unexpected error occurred", r))
		return
	}

	status := statusFor(e.Code)
	if status == http.StatusInternalServerError && e.Cause() != nil {
		log.Printf("%s on %s %s: %v", e.Code, r.Method, r.URL.Path, e.Cause())
	}

	var fields map[string]string
	if len(e.Details) > 0 {
		fields = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			fields[k] = fmt.Sprint(v)
		}
	}
	writeJSON(w, status, errorRespWithFields(string(e.Code), e.Message, fields, r))
}
