package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-401 HTTP error surfaced unchanged to the caller. Detail
// carries the backend's human-readable message; callers present it to the
// user (duplicate email on registration and the like).
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// AsAPIError unwraps err into an *APIError when one is present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseAPIError extracts a detail message from an error response body.
// The backend speaks {"detail": "..."}; {"error": "..."} is accepted as a
// fallback, and an unparseable body degrades to the status text.
func parseAPIError(statusCode int, body []byte) *APIError {
	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Detail != "" {
			return &APIError{StatusCode: statusCode, Detail: envelope.Detail}
		}
		if envelope.Error != "" {
			return &APIError{StatusCode: statusCode, Detail: envelope.Error}
		}
	}

	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Detail: detail}
}
