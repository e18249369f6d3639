package models

import "encoding/json"

// APIResponse is the envelope every rotki endpoint answers with.
type APIResponse[T any] struct {
	Result  T      `json:"result"`
	Message string `json:"message,omitempty"`
}

// ActionResult is the raw outcome of a task, delivered to task handlers.
// A non-empty Message with an empty Result signals a failure.
type ActionResult struct {
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message,omitempty"`
}

// HasResult reports whether the outcome carries a non-null result.
func (r ActionResult) HasResult() bool {
	trimmed := string(r.Result)
	return len(trimmed) > 0 && trimmed != "null"
}

// Failed reports whether the outcome is a failure without a usable result.
func (r ActionResult) Failed() bool {
	return r.Message != "" && !r.HasResult()
}
