// File: confcore/converter.go
package confcore

import (
	"math"
	"reflect"
)

// Converter turns a raw string (possibly empty) into a value of its declared
// TargetType. Implementations must never be invoked with an absent raw
// value -- the registry enforces that -- and must either return a value
// assignable to TargetType or a non-nil error.
type Converter interface {
	Convert(raw string) (any, error)
	TargetType() reflect.Type
}

// converterFunc adapts a typed conversion function into a Converter,
// recovering its target type once via reflection on construction
// instead of requiring every caller to hand-implement TargetType. This
// is the Go substitute for the reference implementation's generic
// supertype walk (spec.md §4.5): Go gives up no reflectable link from a
// compiled function back to its type parameter, so the token is
// captured explicitly, at the single point where it is still known.
type converterFunc[T any] struct {
	fn         func(string) (T, error)
	targetType reflect.Type
}

// NewConverterFunc builds a Converter from a typed parse function. T is
// almost always a concrete scalar, container, or array type; passing an
// interface type as T is legal but then nil return values are treated
// as "absent" per the Optional[T]/Open-Question-(b) resolution.
func NewConverterFunc[T any](fn func(string) (T, error)) Converter {
	return &converterFunc[T]{
		fn:         fn,
		targetType: reflect.TypeOf((*T)(nil)).Elem(),
	}
}

func (c *converterFunc[T]) Convert(raw string) (any, error) {
	v, err := c.fn(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *converterFunc[T]) TargetType() reflect.Type { return c.targetType }

// targetTypeOf recovers the reflect.Type for a type parameter T, the
// same capture NewConverterFunc performs, reused anywhere a generic
// free function needs T's runtime type token.
func targetTypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// registration is the internal (converter, priority, insertion order)
// triple the registry arbitrates on. Priority default is 100.
type registration struct {
	converter Converter
	priority  int
	seq       uint64
}

// DefaultPriority is used for any registration that does not specify
// one explicitly via WithPriority.
const DefaultPriority = 100

// derivedPriority is installed for converters the registry builds
// itself via derive(); it is intentionally the lowest possible int so
// any explicit registration, present now or added later, always wins.
const derivedPriority = math.MinInt

// RegisterOption configures a single call to ConverterRegistry.Register.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	priority int
}

// WithPriority overrides the default priority (100) for a registration.
// Higher priority wins ties against other registrations for the same
// target type.
func WithPriority(p int) RegisterOption {
	return func(o *registerOptions) { o.priority = p }
}

func resolveRegisterOptions(opts []RegisterOption) registerOptions {
	o := registerOptions{priority: DefaultPriority}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// higherPriority reports whether candidate should replace incumbent:
// strictly higher priority wins; on a tie the incumbent (earlier
// insertion) is kept, matching spec.md §3's "priority desc, then
// stable insertion order" comparator.
func higherPriority(candidate, incumbent registration) bool {
	return candidate.priority > incumbent.priority
}
