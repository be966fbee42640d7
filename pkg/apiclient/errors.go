package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Code       string // error code from the body, may be empty
	Message    string // human-readable, never empty
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with one of the given status codes
func IsStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.StatusCode == c {
			return true
		}
	}
	return false
}

// IsUnauthorized reports an auth failure; callers should drop the session and log in again
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// HandleErrorResponse turns a failed response into an *APIError. The message is taken
// from the JSON "message" field, then "error", then the raw body text, then the
// status text.
func HandleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Error
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
