package assistant

import "fmt"

// ValidationError reports a caller mistake: a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " is required"}
}

// UpstreamError reports a failure of the generative model: the call failed,
// returned nothing, or returned a payload that violates the requested shape.
// Fragment holds at most MaxFragmentLength characters of the raw output.
type UpstreamError struct {
	Op       string
	Message  string
	Fragment string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError reports a failed draft write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
