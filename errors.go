// File: confcore/errors.go
package confcore

import (
	"fmt"
	"reflect"
	"strings"
)

// MissingError is returned by GetValue when no source in the chain
// provides a value for the requested name.
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("confcore: no value present for property %q", e.Name)
}

// ConversionError wraps a failure raised by a converter or by derivation
// while turning a raw string into TargetType.
type ConversionError struct {
	Raw        string
	TargetType reflect.Type
	Err        error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("confcore: cannot convert %q to %s: %v", e.Raw, e.TargetType, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// UnsupportedTypeError is raised when no converter is registered for a
// target type and derivation has no applicable recipe for its shape.
type UnsupportedTypeError struct {
	TargetType reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("confcore: no converter for type %s", e.TargetType)
}

// NullInputError indicates a converter was invoked with an absent raw
// value. This is always a library bug, never a caller mistake: the
// registry guarantees a converter is never called without a raw string.
type NullInputError struct{}

func (e *NullInputError) Error() string {
	return "confcore: converter invoked with an absent raw value"
}

// UnresolvableTargetError is raised when a hand-written Converter
// implementation's TargetType method returns nil.
type UnresolvableTargetError struct {
	Converter Converter
}

func (e *UnresolvableTargetError) Error() string {
	return fmt.Sprintf("confcore: converter %T declares no resolvable target type", e.Converter)
}

// AlreadyBoundError is returned by ProviderRegistry.Register when the
// scope key already has a live binding to a different Configuration.
type AlreadyBoundError struct {
	ScopeKey any
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("confcore: scope %v already has a registered configuration", e.ScopeKey)
}

// ClosedError is returned after Close by the operations that report
// errors: GetValue, GetOptionalValue and the typed accessors,
// Unmarshal/UnmarshalSubtree, ConverterRegistry.Convert, and
// ProviderRegistry.Register/CurrentForScope. Other methods do not
// report it: Configuration.PropertyNames and Sources keep answering,
// ConverterRegistry.Register still installs converters,
// ProviderRegistry.Release and OnScopeEnd return nil, and a repeated
// Close returns nil.
type ClosedError struct {
	Component string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("confcore: %s is closed", e.Component)
}

// AggregateError collects cleanup failures from Release/Close. The
// first error encountered is Primary; the rest are attached as
// Suppressed. Unwrap returns the full slice so errors.Is/errors.As walk
// every child, while Error() keeps the primary failure foregrounded.
type AggregateError struct {
	Primary    error
	Suppressed []error
}

func (e *AggregateError) Error() string {
	if len(e.Suppressed) == 0 {
		return e.Primary.Error()
	}
	parts := make([]string, 0, len(e.Suppressed))
	for _, s := range e.Suppressed {
		parts = append(parts, s.Error())
	}
	return fmt.Sprintf("%s (and %d suppressed: %s)", e.Primary.Error(), len(e.Suppressed), strings.Join(parts, "; "))
}

func (e *AggregateError) Unwrap() []error {
	all := make([]error, 0, len(e.Suppressed)+1)
	all = append(all, e.Primary)
	all = append(all, e.Suppressed...)
	return all
}

// joinErrors builds an AggregateError from a non-empty slice of errors,
// or returns nil if errs is empty/all-nil.
func joinErrors(errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}
	return &AggregateError{Primary: nonNil[0], Suppressed: nonNil[1:]}
}
