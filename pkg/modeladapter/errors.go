package modeladapter

import "fmt"

// QueryError reports a failed model query: a transport failure, a non-2xx
// response, or a malformed response body. Callers never see a raw provider
// error body through this type, only the underlying cause message.
type QueryError struct {
	Cause error
}

func (e *QueryError) Error() string { return fmt.Sprintf("model query failed: %v", e.Cause) }

func (e *QueryError) Unwrap() error { return e.Cause }

// ProcessError reports a failed ProcessContext call. When the failure
// originates from the outbound call the cause is a *QueryError.
type ProcessError struct {
	Task  string
	Cause error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("context processing failed (task %q): %v", e.Task, e.Cause)
}

func (e *ProcessError) Unwrap() error { return e.Cause }

// MergeError reports a failed MergeContexts call. A single underlying
// failure aborts the whole merge; there is no partial merge result.
type MergeError struct {
	Cause error
}

func (e *MergeError) Error() string { return fmt.Sprintf("context merge failed: %v", e.Cause) }

func (e *MergeError) Unwrap() error { return e.Cause }

// SummarizeError reports a failed SummarizeContext call.
type SummarizeError struct {
	Cause error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("context summarization failed: %v", e.Cause)
}

func (e *SummarizeError) Unwrap() error { return e.Cause }
