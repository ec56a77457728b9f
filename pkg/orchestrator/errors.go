package orchestrator

import (
	"errors"
	"fmt"
)

// ErrConfig marks fatal configuration errors: unknown mode, missing model,
// missing required credentials, and backend rejections that survive the
// retry policy.
var ErrConfig = errors.New("configuration error")

// ResultTypeError reports a tool return value that cannot be represented as
// a history string.
type ResultTypeError struct {
	Tool  string
	Value any
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("tool %s returned a value of type %T that cannot be represented as a string; return a string, an agent, or an agent.Result", e.Tool, e.Value)
}
