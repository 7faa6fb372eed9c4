package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericErrorMessage is reported when the backend gives no usable message.
const GenericErrorMessage = "REQUEST_ERROR"

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	URL     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s returned %d: %s", e.URL, e.Status, e.Message)
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= http.StatusInternalServerError
}

// SchemaError reports a backend payload that does not match the expected schema.
type SchemaError struct {
	URL     string
	Payload json.RawMessage
	Issues  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected response shape from %s: %s", e.URL, strings.Join(e.Issues, "; "))
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf extracts the backend status from err, zero when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// newAPIError reads the {statusCode,message,error} body the backend sends on failures.
// message may be a string or a list of strings.
func newAPIError(status int, url string, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: GenericErrorMessage, Message: GenericErrorMessage, URL: url}

	var payload struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	switch msg := payload.Message.(type) {
	case string:
		if strings.TrimSpace(msg) != "" {
			apiErr.Message = msg
		}
	case []any:
		parts := make([]string, 0, len(msg))
		for _, item := range msg {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			apiErr.Message = strings.Join(parts, "; ")
		}
	}
	if strings.TrimSpace(payload.Error) != "" {
		apiErr.Code = payload.Error
	}
	return apiErr
}
