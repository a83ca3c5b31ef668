package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/identity/pkg/httpx"
)

// MessageValidationFailed is the message of every validation failure.
const MessageValidationFailed = "Validation failed"

// APIError is a failed call to the identity service or the gateway. It is
// used both by the server (to write responses) and by the SDK client (to
// represent errors).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int

	// Message is the human-readable message from the body
	Message string

	// Fields maps field names to messages for validation failures
	Fields map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Fields)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// WriteError writes e as {"code","message"} with a "data" field map when
// Fields is set.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Code:    e.StatusCode,
		Message: e.Message,
		Data:    e.Fields,
	})
}

// NewAPIError creates an APIError with the given status and message.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// NewValidationError creates the 400 response for failed field validation.
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    MessageValidationFailed,
		Fields:     fields,
	}
}

// ErrBadJSON is returned when the request body cannot be decoded.
var ErrBadJSON = NewAPIError(http.StatusBadRequest, "Request body must be valid JSON")

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errResp.Message,
			Fields:     errResp.Data,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
