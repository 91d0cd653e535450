package domain

import "fmt"

// NoContextMarker is placed in the prompt when retrieval finds nothing,
// so the completion service is told about the absence explicitly.
const NoContextMarker = "No relevant information found."

// Answer provenance values reported in ParsedAnswer.Source.
const (
	SourceKnowledgeBase = "knowledge_base"
	SourceWebSearch     = "web_search"

	// SourceUnknown marks an answer taken verbatim from unparseable output.
	SourceUnknown = "unparsed"
)

// AnswerRequest is the input to the answer pipeline.
type AnswerRequest struct {
	Query string

	// SessionID groups exchanges. Generated when empty.
	SessionID string

	// UserID is recorded for audit. Defaults to DefaultUserID.
	UserID string
}

// AnswerResponse is the output of the answer pipeline.
type AnswerResponse struct {
	Answer    string
	SessionID string
}

// ParsedAnswer is the structured result the completion service is asked to return.
type ParsedAnswer struct {
	Response string `json:"response"`
	Source   string `json:"source"`
}

// ParseError describes completion output that did not match the answer format.
type ParseError struct {
	// Raw is the untouched completion text.
	Raw string

	// Reason is a short description of what was wrong.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrAnswerFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrAnswerFormat, e.Reason)
}

// Unwrap allows errors.Is(err, ErrAnswerFormat) and access to the decode error.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAnswerFormat, e.Err}
	}
	return []error{ErrAnswerFormat}
}
