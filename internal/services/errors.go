package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrMissingInput  = errors.New("missing input")
	ErrUnparseable   = errors.New("unparseable response")
)

// Kind is the failure category a node reports for a collaborator error.
type Kind string

const (
	KindMissingInput    Kind = "missing_input"
	KindExternalService Kind = "external_service"
	KindUnparseable     Kind = "unparseable_response"
	KindConfiguration   Kind = "configuration"
)

// Wrap builds an error message that includes node context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error onto the failure taxonomy used in node error details.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
		return KindMissingInput
	case errors.Is(err, ErrUnparseable):
		return KindUnparseable
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindExternalService
	}
}

// Soft reports whether the failure should degrade output rather than fail the run.
func Soft(err error) bool {
	return Classify(err) == KindUnparseable
}

// Message returns the user-facing portion of a wrapped error: the detail and
// cause without the leading marker text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{
		ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound,
		ErrTimeout, ErrTransient, ErrMissingInput, ErrUnparseable,
	} {
		prefix := marker.Error() + ": "
		if errors.Is(err, marker) && strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
