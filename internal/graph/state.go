package graph

import (
	"encoding/json"
	"maps"
	"slices"
)

// Reserved state keys understood by the executor.
const (
	KeyError       = "error"
	KeyErrorType   = "error_type"
	KeyCurrentStep = "current_step"
	KeyStepNumber  = "step_number"
	KeyTotalSteps  = "total_steps"
	KeyJobID       = "job_id"
	KeyRunID       = "run_id"
)

// State is the accumulating record threaded through a run.
type State map[string]any

// Partial is the subset of fields a single node produces.
type Partial map[string]any

// Merge folds partial into s and returns the new container. Every key in
// partial overwrites the existing value wholesale; nested maps and slices are
// never merged. Neither argument is modified.
func Merge(s State, partial Partial) State {
	out := make(State, len(s)+len(partial))
	maps.Copy(out, s)
	maps.Copy(out, partial)
	return out
}

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// String returns the value stored under key when it is a string.
func (s State) String(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the value stored under key when it is a bool.
func (s State) Bool(key string) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return false
}

// Int returns the integer stored under key. Float values are truncated so
// states decoded from JSON behave the same as states built in code.
func (s State) Int(key string) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Float returns the number stored under key.
func (s State) Float(key string) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Strings returns a copy of the string list stored under key. Lists decoded
// from JSON ([]any) are converted element by element. Callers that append to
// the result must return the whole list in their partial.
func (s State) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Map returns the nested map stored under key.
func (s State) Map(key string) map[string]any {
	if v, ok := s[key].(map[string]any); ok {
		return v
	}
	return nil
}

// HasError reports whether a node has declared an error.
func (s State) HasError() bool {
	return s.String(KeyError) != ""
}

// ErrorMessage returns the declared error, if any.
func (s State) ErrorMessage() string {
	return s.String(KeyError)
}

// Get returns the value under key as T. Values restored from a persisted
// checkpoint arrive as generic JSON and are decoded into T.
func Get[T any](s State, key string) (T, bool) {
	var out T
	raw, ok := s[key]
	if !ok || raw == nil {
		return out, false
	}
	if v, ok := raw.(T); ok {
		return v, true
	}
	switch raw.(type) {
	case map[string]any, []any:
	default:
		return out, false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false
	}
	return out, true
}
