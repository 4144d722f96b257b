// errors.go defines the failure taxonomy for the conversational loop.
//
// All failures are caught at the orchestrator boundary and converted into
// a user-visible status message plus a terminal state; no error crosses
// into the conversation history as anything other than a plain message.
package chat

import "errors"

var (
	// ErrCompletionFailed covers provider/network errors and malformed
	// structured responses.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrSQLExecution covers invalid SQL or runtime database errors. The
	// loop terminates rather than resubmitting a broken query.
	ErrSQLExecution = errors.New("sql execution failed")

	// ErrRecursionLimit is returned when the SQL-continuation cycle
	// exceeds its bound.
	ErrRecursionLimit = errors.New("tool recursion limit exceeded")

	// ErrProtocolViolation is an internal consistency error, e.g. an
	// append that would put two same-role turns next to each other in
	// the model-facing history.
	ErrProtocolViolation = errors.New("conversation protocol violation")
)
