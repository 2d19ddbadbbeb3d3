package genie

import "fmt"

// Fallback content used when a completed message carries no text at all.
const placeholderContent = "Response received but no content available."

// extracted is the normalized view of a completed message's attachments.
type extracted struct {
	content            string
	suggestedQuestions []string
	queryAttachment    *QueryAttachment
}

// extractContent normalizes a completed message into displayable parts.
// The attachment list is an unordered union, so each kind is searched for
// independently and the first match of each kind wins. The function is
// pure and always produces a non-empty content string:
//
//  1. first text attachment with content
//  2. otherwise, a synthesized line echoing the executed SQL
//  3. otherwise, the message's own top-level content field
//  4. otherwise, a fixed placeholder
func extractContent(msg *Message) extracted {
	var ex extracted

	for _, a := range msg.Attachments {
		switch a.Kind() {
		case AttachmentText:
			if ex.content == "" && a.Text.Content != "" {
				ex.content = a.Text.Content
			}
		case AttachmentSuggestedQuestions:
			if ex.suggestedQuestions == nil && len(a.SuggestedQuestions.Questions) > 0 {
				ex.suggestedQuestions = a.SuggestedQuestions.Questions
			}
		case AttachmentQuery:
			if ex.queryAttachment == nil {
				ex.queryAttachment = a.Query
			}
		}
	}

	// Data-only answers (just a table, no prose) still get readable content.
	if ex.content == "" && ex.queryAttachment != nil {
		ex.content = fmt.Sprintf("Query executed successfully. SQL: %s", ex.queryAttachment.Query)
	}

	if ex.content == "" {
		ex.content = msg.Content
	}
	if ex.content == "" {
		ex.content = placeholderContent
	}

	return ex
}

// buildMetadata assembles optional execution metadata from a completed
// message: the warehouse execution duration and the SQL texts of all
// query attachments.
func buildMetadata(msg *Message) *Metadata {
	var md Metadata

	if msg.QueryResult != nil {
		md.QueryExecutionMS = msg.QueryResult.DurationMS
	}

	for _, a := range msg.Attachments {
		if a.Query != nil {
			md.DataSourcesUsed = append(md.DataSourcesUsed, a.Query.Query)
		}
	}

	if md.QueryExecutionMS == 0 && len(md.DataSourcesUsed) == 0 {
		return nil
	}
	return &md
}
