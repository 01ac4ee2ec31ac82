package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/request"
	"github.com/benvon/smart-worklog/internal/services/ai"
	"github.com/benvon/smart-worklog/internal/validation"
)

// ErrorBody is the JSON body of every failed API call
type ErrorBody struct {
	Success    bool                     `json:"success"`
	Error      string                   `json:"error"`
	Kind       models.ErrorKind         `json:"kind,omitempty"`
	Message    string                   `json:"message"`
	Suggestion string                   `json:"suggestion,omitempty"`
	Choices    []models.RankedCandidate `json:"choices,omitempty"`
	Timestamp  string                   `json:"timestamp"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON response with a truncated message
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeError(w, status, ErrorBody{Error: errorType, Message: message})
}

func writeError(w http.ResponseWriter, status int, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body.Success = false
	body.Message = logger.SanitizeString(body.Message, logger.MaxErrorMessageLength)
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusForKind maps pipeline failures onto HTTP statuses
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindFormat, models.KindTimeParse, models.KindDurationParse, models.KindFutureWeekday:
		return http.StatusUnprocessableEntity
	case models.KindNoMatch, models.KindSelectionNotFound:
		return http.StatusNotFound
	case models.KindAmbiguousMatch:
		return http.StatusConflict
	case models.KindSelectionExpired:
		return http.StatusGone
	case models.KindSelectionOwnership:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondCommandError answers with the status for err's kind. Errors outside
// the command taxonomy are logged and reported without detail.
func respondCommandError(w http.ResponseWriter, r *http.Request, err error, zapLogger *zap.Logger) {
	var ce *models.CommandError
	if errors.As(err, &ce) {
		writeError(w, statusForKind(ce.Kind), ErrorBody{
			Error:      http.StatusText(statusForKind(ce.Kind)),
			Kind:       ce.Kind,
			Message:    ce.Message,
			Suggestion: ce.Suggestion,
			Choices:    ce.Choices,
		})
		return
	}

	if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
		var apiErr *ai.APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter != nil {
			w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
		}
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "command parser is temporarily unavailable")
		return
	}

	zapLogger.Error("request_failed",
		zap.String("request_id", request.RequestID(r.Context())),
		zap.String("path", logger.SanitizePath(r.URL.Path)),
		zap.String("error", logger.SanitizeError(err)),
	)
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
}

// decodeJSON reads a single JSON object into dst
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

func validateRequest(v any) error {
	if err := validation.Validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// ownerFor prefers the owner set by a trusted transport header over the body
func ownerFor(r *http.Request, bodyOwner string) string {
	if owner := request.OwnerID(r.Context()); owner != "" {
		return owner
	}
	return bodyOwner
}
