package databricks

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoResponse indicates the request was sent but no response came back
// (connection failure, DNS error, client-side timeout).
// Use errors.Is() to check for it in calling code.
var ErrNoResponse = errors.New("no response received")

// APIError is a non-success response from the Databricks REST API.
type APIError struct {
	StatusCode int
	Status     string
	// Message is the remote-provided error message, empty when the
	// response body carried none.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Status)
}

// ErrorMessage returns the remote message, falling back to the status text.
func (e *APIError) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Status
}

// errorBody covers the error shapes Databricks returns: a top-level
// message, or an error object wrapping one.
type errorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(statusCode int, status string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Message != "":
			apiErr.Message = eb.Message
		case eb.Error != nil && eb.Error.Message != "":
			apiErr.Message = eb.Error.Message
		}
	}

	return apiErr
}
