package genie

// Status is the server-driven lifecycle state of a Genie message.
// The client never transitions a message itself; it only observes the
// current status on each poll.
type Status string

// Message lifecycle statuses as reported by the Genie API.
const (
	StatusSubmitted        Status = "SUBMITTED"
	StatusFetchingMetadata Status = "FETCHING_METADATA"
	StatusAskingAI         Status = "ASKING_AI"
	StatusPendingWarehouse Status = "PENDING_WAREHOUSE"
	StatusExecutingQuery   Status = "EXECUTING_QUERY"
	StatusCompleted        Status = "COMPLETED"
	StatusFailed           Status = "FAILED"
	StatusCancelled        Status = "CANCELLED"
)

// Terminal reports whether the status ends the polling loop.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// AttachmentKind discriminates the attachment union.
type AttachmentKind int

// Attachment kinds.
const (
	AttachmentUnknown AttachmentKind = iota
	AttachmentText
	AttachmentSuggestedQuestions
	AttachmentQuery
)

// Attachment is one element of a completed message's attachment list.
// The backend returns a discriminated union: exactly one of the pointer
// fields is set, identifying the kind.
type Attachment struct {
	Text               *TextAttachment               `json:"text,omitempty"`
	SuggestedQuestions *SuggestedQuestionsAttachment `json:"suggested_questions,omitempty"`
	Query              *QueryAttachment              `json:"query,omitempty"`
}

// Kind returns the variant the attachment carries.
func (a Attachment) Kind() AttachmentKind {
	switch {
	case a.Text != nil:
		return AttachmentText
	case a.SuggestedQuestions != nil:
		return AttachmentSuggestedQuestions
	case a.Query != nil:
		return AttachmentQuery
	default:
		return AttachmentUnknown
	}
}

// TextAttachment carries the prose part of an answer.
type TextAttachment struct {
	Content string `json:"content"`
}

// SuggestedQuestionsAttachment carries follow-up question suggestions.
type SuggestedQuestionsAttachment struct {
	Questions []string `json:"questions"`
}

// QueryAttachment references a statement Genie executed on the warehouse.
type QueryAttachment struct {
	StatementID string `json:"statement_id"`
	Query       string `json:"query"`
	Description string `json:"description,omitempty"`
}

// Message is the full message payload returned by the status endpoint.
type Message struct {
	ID          string              `json:"id"`
	Status      Status              `json:"status"`
	Content     string              `json:"content,omitempty"`
	Attachments []Attachment        `json:"attachments,omitempty"`
	QueryResult *QueryResultSummary `json:"query_result,omitempty"`
	Error       *MessageError       `json:"error,omitempty"`
}

// ErrorMessage returns the backend-reported error message, if any.
func (m *Message) ErrorMessage() string {
	if m.Error == nil {
		return ""
	}
	return m.Error.Message
}

// MessageError is the error detail attached to a FAILED or CANCELLED message.
type MessageError struct {
	Message string `json:"message"`
}

// QueryResultSummary is the execution metadata embedded in a completed
// message, distinct from the tabular result fetched separately.
type QueryResultSummary struct {
	DurationMS int64 `json:"duration_ms"`
}

// QueryResult is the tabular result of an executed statement.
// Rows are positionally aligned to Columns.
type QueryResult struct {
	StatementID string   `json:"statementId"`
	RowCount    int      `json:"rowCount"`
	Columns     []string `json:"columns"`
	Rows        [][]any  `json:"rows"`
}

// Request is a single user turn sent to the assistant.
// ConversationID is empty on the first turn of a session.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Metadata carries optional execution details of a completed answer.
type Metadata struct {
	QueryExecutionMS int64    `json:"queryExecutionTimeMs,omitempty"`
	DataSourcesUsed  []string `json:"dataSourcesUsed,omitempty"`
}

// Response is the assembled answer returned to callers.
// QueryResult may be absent even on success; everything else is
// populated on every successful call.
type Response struct {
	ID                 string       `json:"id"`
	Content            string       `json:"content"`
	ConversationID     string       `json:"conversationId"`
	SuggestedQuestions []string     `json:"suggestedQuestions,omitempty"`
	QueryResult        *QueryResult `json:"queryResult,omitempty"`
	Metadata           *Metadata    `json:"metadata,omitempty"`
}
