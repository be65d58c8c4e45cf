package config

import "errors"

// ErrEmptyGraph indicates a graph config with no nodes.
var ErrEmptyGraph = errors.New("graph config has no nodes")

// ErrMissingFaultTarget indicates an injected fault whose affect clause is
// absent.
var ErrMissingFaultTarget = errors.New("fault has neither affect_publish nor affect_receive")

// ValidationError reports a malformed field along with the file and field
// path that produced it.
type ValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.Field + ": " + e.Message
	}
	return e.Field + ": " + e.Message
}
