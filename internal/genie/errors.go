package genie

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clinicpulse/clinicpulse/internal/databricks"
)

// Sentinel errors for Genie operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTimeout indicates the polling attempt budget was exhausted
	// before the message reached a terminal state.
	ErrTimeout = errors.New("query timeout: Genie took too long to respond")

	// ErrNoResponse indicates a request was sent but no response came
	// back from the Genie API.
	ErrNoResponse = errors.New("no response from Genie API, check your network connection")
)

// TerminalError reports a message that ended in FAILED or CANCELLED.
type TerminalError struct {
	Status Status
	// Message is the backend-reported error message, empty when the
	// backend supplied none.
	Message string
}

func (e *TerminalError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("query %s: %s", strings.ToLower(string(e.Status)), msg)
}

// classify maps a failure from any layer into the error taxonomy exposed
// to callers: terminal failure and timeout pass through already
// classified, transport failures become ErrNoResponse, non-success API
// responses are labeled as Genie API errors, and anything else is a
// local error.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var terminalErr *TerminalError
	if errors.As(err, &terminalErr) || errors.Is(err, ErrTimeout) {
		return err
	}

	var apiErr *databricks.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("Genie API error: %s", apiErr.ErrorMessage())
	}

	if errors.Is(err, databricks.ErrNoResponse) {
		return fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	return fmt.Errorf("failed to get response from Genie: %w", err)
}
