package chart

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned by a redraw that was overtaken by a newer
// request before it touched the drawing surface.
var ErrSuperseded = errors.New("redraw superseded by a newer request")

// MappingError reports a mapper that cannot serve the requested chart kind.
// It aborts the redraw of the series it belongs to.
type MappingError struct {
	Series string
	Kind   Kind
	Field  Field
	Reason string
}

func (e *MappingError) Error() string {
	if e.Series != "" {
		return fmt.Sprintf("series %q: %s mapping of %s: %s", e.Series, e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s mapping of %s: %s", e.Kind, e.Field, e.Reason)
}

// InvalidValueError reports a single point that could not be laid out. The
// point is excluded and the series continues.
type InvalidValueError struct {
	Index int
	Field Field
	Value float64
	// Cause is set when the extractor panicked.
	Cause error
	// Reason overrides the default description, e.g. for duplicate keys.
	Reason string
}

func (e *InvalidValueError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("point %d: %s", e.Index, e.Reason)
	case e.Cause != nil:
		return fmt.Sprintf("point %d: failed extracting %s: %v", e.Index, e.Field, e.Cause)
	default:
		return fmt.Sprintf("point %d: %s is not finite (%v)", e.Index, e.Field, e.Value)
	}
}

func (e *InvalidValueError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports a rejected property assignment. The previous
// value of the property is retained.
type ConfigurationError struct {
	Property string
	Value    any
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Property, e.Value, e.Reason)
}

// PrimitiveRegistrationError reports a drawing-surface failure for one
// point. The point is left out of the current pass and retried on the next.
type PrimitiveRegistrationError struct {
	Key  Key
	Role Role
	Err  error
}

func (e *PrimitiveRegistrationError) Error() string {
	return fmt.Sprintf("failed registering %s primitive for %q: %v", e.Role, e.Key, e.Err)
}

func (e *PrimitiveRegistrationError) Unwrap() error {
	return e.Err
}
