package editcmd

import "fmt"

// ParseErrorKind distinguishes the structural failure classes the
// tokenizer and command materializer can report.
type ParseErrorKind string

const (
	ParseErrUnclosedTag   ParseErrorKind = "unclosed_tag"
	ParseErrMismatchedTag ParseErrorKind = "mismatched_closing_tag"
	ParseErrEmptyTagName  ParseErrorKind = "empty_tag_name"
	ParseErrBadCommand    ParseErrorKind = "bad_command"
)

// ParseError is returned for malformed command text. The message is
// written for the model: it states what was wrong and with which tag or
// parameter, so the next attempt can be corrected.
type ParseError struct {
	Kind    ParseErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("command parse error: %s", e.Message)
}

func parseErrorf(kind ParseErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExecutionError is returned when a structurally valid command cannot be
// applied to the current document, e.g. marker text that does not occur.
type ExecutionError struct {
	Command Command
	Reason  string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s command failed: %s", e.Command.Type(), e.Reason)
}

func executionErrorf(cmd Command, format string, args ...any) *ExecutionError {
	return &ExecutionError{Command: cmd, Reason: fmt.Sprintf(format, args...)}
}
