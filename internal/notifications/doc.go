// Package notifications delivers job events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled. The
// on_complete and on_failure switches filter events at the service level.
package notifications
