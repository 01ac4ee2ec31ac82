package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := err.Error()
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError extracts API error details from an error. It returns nil
// for errors that did not come from the provider API.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		apiErr := &APIError{
			StatusCode: sdkErr.StatusCode,
			Message:    sdkErr.Message,
			Type:       sdkErr.Type,
			Code:       sdkErr.Code,
		}
		if apiErr.Code == "" {
			fillFromBody(apiErr, sdkErr.Error())
		}
		if apiErr.Message == "" {
			apiErr.Message = sdkErr.Error()
		}
		classify(apiErr)
		return apiErr
	}

	// Some transports only surface the status inside the message
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}
	apiErr := &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    errStr,
		Type:       "rate_limit_error",
	}
	fillFromBody(apiErr, errStr)
	classify(apiErr)
	return apiErr
}

// fillFromBody copies error details from a JSON body embedded in s. Both the
// bare object and the {"error": {...}} envelope are understood.
func fillFromBody(apiErr *APIError, s string) {
	jsonStart := strings.Index(s, "{")
	jsonEnd := strings.LastIndex(s, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return
	}

	type details struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	}
	var body struct {
		details
		Error *details `json:"error"`
	}
	if json.Unmarshal([]byte(s[jsonStart:jsonEnd+1]), &body) != nil {
		return
	}
	d := body.details
	if body.Error != nil {
		d = *body.Error
	}
	if d.Message != "" {
		apiErr.Message = d.Message
	}
	if d.Type != "" {
		apiErr.Type = d.Type
	}
	if d.Code != "" {
		apiErr.Code = d.Code
	}
}

// classify marks quota exhaustion as permanent and estimates a retry delay
func classify(apiErr *APIError) {
	if apiErr.Code == "insufficient_quota" {
		apiErr.IsPermanent = true
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		return
	}
	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter
}
