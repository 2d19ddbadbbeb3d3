// Package genie implements the conversational query client for the
// Databricks Genie API: it turns a free-text question into a completed,
// structured answer through a start/append call, a polling loop over the
// message status lifecycle, attachment normalization, and an optional
// tabular result fetch.
package genie

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicpulse/clinicpulse/internal/config"
	"github.com/clinicpulse/clinicpulse/internal/databricks"
)

// Polling schedule. The first re-poll waits initialPollDelay; each
// subsequent wait grows by backoffFactor up to maxPollDelay. The cap is
// hit after 9 polls (~34s elapsed), so maxPollAttempts bounds a stuck
// query to roughly ten minutes.
const (
	initialPollDelay = 2 * time.Second
	maxPollDelay     = 60 * time.Second
	backoffFactor    = 1.5
	maxPollAttempts  = 300
)

// StatusFunc observes the raw message status on every poll.
// It is invoked synchronously from the poll loop, before the status is
// evaluated, so callers can drive progress UI from it.
type StatusFunc func(status Status)

// Client talks to the Genie conversation API for a single space.
// A Client holds no per-call state; concurrent SendMessage calls proceed
// independently.
type Client struct {
	api     *databricks.Client
	spaceID string
	logger  *slog.Logger

	// configured captures whether host, token and space id were all
	// present at construction. Calls are still attempted regardless.
	configured bool

	// sleep is swapped out in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Genie client from configuration.
func New(cfg config.Config, logger *slog.Logger) *Client {
	return &Client{
		api:        databricks.New(cfg.BaseURL(), cfg.DatabricksToken, cfg.HTTPTimeout),
		spaceID:    cfg.GenieSpaceID,
		logger:     logger,
		configured: cfg.DatabricksHost != "" && cfg.DatabricksToken != "" && cfg.GenieSpaceID != "",
		sleep:      sleepContext,
	}
}

// IsConfigured reports whether all three required service coordinates
// (workspace host, access token, space id) were present. It does not
// validate them against the remote service.
func (c *Client) IsConfigured() bool {
	return c.configured
}

// SendMessage runs one full request/response cycle: start or continue the
// conversation, poll the message until terminal, normalize the answer,
// and fetch the tabular result when one is referenced.
//
// onStatus, when non-nil, receives the raw status observed on every poll.
// On failure no partial response is returned; a missing tabular result
// alone does not fail the call.
func (c *Client) SendMessage(ctx context.Context, req Request, onStatus StatusFunc) (*Response, error) {
	conversationID, messageID, err := c.startOrContinue(ctx, req.ConversationID, req.Message)
	if err != nil {
		return nil, classify(err)
	}

	msg, err := c.pollForCompletion(ctx, conversationID, messageID, onStatus)
	if err != nil {
		return nil, classify(err)
	}

	ex := extractContent(msg)

	var queryResult *QueryResult
	if ex.queryAttachment != nil {
		queryResult = c.fetchQueryResult(ctx, conversationID, ex.queryAttachment.StatementID)
	}

	return &Response{
		ID:                 messageID,
		Content:            ex.content,
		ConversationID:     conversationID,
		SuggestedQuestions: ex.suggestedQuestions,
		QueryResult:        queryResult,
		Metadata:           buildMetadata(msg),
	}, nil
}

// startOrContinue opens a new conversation when conversationID is empty,
// or appends a message to the existing one. It returns the conversation
// and message ids needed for polling.
func (c *Client) startOrContinue(ctx context.Context, conversationID, text string) (string, string, error) {
	body := map[string]string{"content": text}

	if conversationID == "" {
		var started struct {
			Conversation struct {
				ID string `json:"id"`
			} `json:"conversation"`
			Message struct {
				ID string `json:"id"`
			} `json:"message"`
		}
		path := fmt.Sprintf("/api/2.0/genie/spaces/%s/start-conversation", c.spaceID)
		if err := c.api.Post(ctx, path, body, &started); err != nil {
			return "", "", err
		}
		return started.Conversation.ID, started.Message.ID, nil
	}

	var posted struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/messages", c.spaceID, conversationID)
	if err := c.api.Post(ctx, path, body, &posted); err != nil {
		return "", "", err
	}
	return conversationID, posted.ID, nil
}

// pollForCompletion fetches the message status until a terminal state is
// observed or the attempt budget runs out. The loop is strictly
// sequential: one request, then one wait, then the next request.
func (c *Client) pollForCompletion(ctx context.Context, conversationID, messageID string, onStatus StatusFunc) (*Message, error) {
	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/messages/%s",
		c.spaceID, conversationID, messageID)

	for attempt := 1; attempt <= maxPollAttempts; attempt++ {
		var msg Message
		if err := c.api.Get(ctx, path, &msg); err != nil {
			return nil, err
		}

		if onStatus != nil {
			onStatus(msg.Status)
		}

		switch msg.Status {
		case StatusCompleted:
			return &msg, nil
		case StatusFailed, StatusCancelled:
			return nil, &TerminalError{Status: msg.Status, Message: msg.ErrorMessage()}
		}

		if err := c.sleep(ctx, pollDelay(attempt)); err != nil {
			return nil, err
		}
	}

	return nil, ErrTimeout
}

// pollDelay returns the wait before re-poll n (1-indexed):
// min(2s * 1.5^(n-1), 60s).
func pollDelay(attempt int) time.Duration {
	d := float64(initialPollDelay)
	for i := 1; i < attempt; i++ {
		d *= backoffFactor
		if d >= float64(maxPollDelay) {
			return maxPollDelay
		}
	}
	return time.Duration(d)
}

// fetchQueryResult retrieves the tabular result of an executed statement.
// Failures are logged and swallowed: a missing table must not invalidate
// an otherwise-successful conversational answer.
func (c *Client) fetchQueryResult(ctx context.Context, conversationID, statementID string) *QueryResult {
	var raw struct {
		RowCount int      `json:"row_count"`
		Columns  []string `json:"columns"`
		Rows     [][]any  `json:"rows"`
	}

	path := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/query-result/%s",
		c.spaceID, conversationID, statementID)
	if err := c.api.Get(ctx, path, &raw); err != nil {
		c.logger.Warn("failed to fetch query result",
			"conversation_id", conversationID,
			"statement_id", statementID,
			"error", err)
		return nil
	}

	return &QueryResult{
		StatementID: statementID,
		RowCount:    raw.RowCount,
		Columns:     raw.Columns,
		Rows:        raw.Rows,
	}
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
