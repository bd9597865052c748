// File: confcore/config.go
package confcore

import (
	"fmt"
	"reflect"
	"sync"
)

// Configuration is the read side of this package: a fixed, priority-
// ordered chain of Sources plus the ConverterRegistry used to turn
// their raw strings into typed values. It is safe for concurrent use.
// Build one with ConfigurationBuilder; nothing outside this package
// constructs one directly.
type Configuration struct {
	mu         sync.RWMutex
	sources    []Source
	converters *ConverterRegistry
	closed     bool
}

func newConfiguration(sources []Source, converters *ConverterRegistry) *Configuration {
	filtered := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &Configuration{
		sources:    sortSources(filtered),
		converters: converters,
	}
}

// sourcesSnapshot returns a copy of the source chain, or nil if closed.
func (c *Configuration) sourcesSnapshot() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// GetValue looks up name and converts it to T, or returns a
// *MissingError if no source has it, or a *ConversionError/
// *UnsupportedTypeError if the value cannot be converted. Go methods
// cannot be generic, so this is a free function taking the
// Configuration explicitly -- the direct substitute for the reference
// implementation's instance method of the same name.
//
// Per Open Question (b)'s resolution, a converter that produces a nil
// Ptr/Interface/Map/Slice/Chan/Func value for T is treated the same as
// the reference implementation's "null return": that source's value is
// skipped and the next source in the chain is tried, rather than being
// surfaced as the answer.
func GetValue[T any](c *Configuration, name string) (T, error) {
	var zero T
	if c.IsClosed() {
		return zero, &ClosedError{Component: "Configuration"}
	}
	targetType := targetTypeOf[T]()
	for _, s := range c.sourcesSnapshot() {
		raw, ok := s.Value(name)
		if !ok {
			continue
		}
		result, absent, err := convertTo[T](c, raw, targetType, name)
		if err != nil {
			return zero, err
		}
		if absent {
			continue
		}
		return result, nil
	}
	return zero, &MissingError{Name: name}
}

// GetOptionalValue mirrors GetValue but reports absence -- whether no
// source has name, or every source that does produced a nil result for
// a nilable target kind -- as a None Optional instead of a
// *MissingError. A conversion failure is still reported as an error,
// distinct from absence.
func GetOptionalValue[T any](c *Configuration, name string) (Optional[T], error) {
	if c.IsClosed() {
		return None[T](), &ClosedError{Component: "Configuration"}
	}
	targetType := targetTypeOf[T]()
	for _, s := range c.sourcesSnapshot() {
		raw, ok := s.Value(name)
		if !ok {
			continue
		}
		result, absent, err := convertTo[T](c, raw, targetType, name)
		if err != nil {
			return None[T](), err
		}
		if absent {
			continue
		}
		return Some(result), nil
	}
	return None[T](), nil
}

// convertTo converts raw to T, reporting absent=true when the converter
// produced a nil value for a nilable target kind (Open Question (b)):
// the caller must treat that exactly like the source not having had the
// property at all and move on to the next source. A nil result for a
// non-nilable kind is a derivation bug and is surfaced as a
// *ConversionError instead.
func convertTo[T any](c *Configuration, raw string, targetType reflect.Type, name string) (T, bool, error) {
	var zero T
	v, err := c.converters.Convert(raw, targetType)
	if err != nil {
		return zero, false, err
	}
	if isNilConversionResult(v, targetType) {
		if nilableKind(targetType.Kind()) {
			return zero, true, nil
		}
		return zero, false, &ConversionError{Raw: raw, TargetType: targetType, Err: fmt.Errorf("converter returned a nil value for non-nilable property %q", name)}
	}
	result, ok := v.(T)
	if !ok {
		return zero, false, &ConversionError{Raw: raw, TargetType: targetType, Err: fmt.Errorf("converter produced %T, want %T for property %q", v, zero, name)}
	}
	return result, false, nil
}

// nilableKind reports whether a value of this kind can itself be nil --
// the Go kinds the Open Question (b) resolution treats as "may
// legitimately come back nil from a converter".
func nilableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

// isNilConversionResult reports whether v is a nil value of a nilable
// kind: either the any itself is nil, or it holds a typed nil (a nil
// *T, map, slice, chan, or func boxed in a non-nil interface).
func isNilConversionResult(v any, targetType reflect.Type) bool {
	if !nilableKind(targetType.Kind()) {
		return false
	}
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// String, Int, Int64, Float64, and Bool are the fixed-type
// convenience accessors the teacher exposed directly on Config; here
// they are thin wrappers delegating to the generic GetValue, since a
// method itself cannot carry a type parameter.
func (c *Configuration) String(name string) (string, error) { return GetValue[string](c, name) }
func (c *Configuration) Int(name string) (int, error)        { return GetValue[int](c, name) }
func (c *Configuration) Int64(name string) (int64, error)    { return GetValue[int64](c, name) }
func (c *Configuration) Float64(name string) (float64, error) {
	return GetValue[float64](c, name)
}
func (c *Configuration) Bool(name string) (bool, error) { return GetValue[bool](c, name) }

// PropertyNames is the union of every source's PropertyNames, best
// effort: sources like EnvSource that cannot enumerate their keys
// simply contribute nothing here while still answering direct Value
// lookups.
func (c *Configuration) PropertyNames() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]struct{})
	for _, s := range c.sources {
		for name := range s.PropertyNames() {
			out[name] = struct{}{}
		}
	}
	return out
}

// Sources returns the configuration's source chain in priority order
// (highest first), the order lookups are actually tried in.
func (c *Configuration) Sources() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// IsClosed reports whether Close has been called. It never returns a
// *ClosedError.
func (c *Configuration) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close marks the Configuration closed and closes every source that
// implements io.Closer, aggregating failures. Close is idempotent:
// calling it again returns nil. It does not close the
// ConverterRegistry, which a builder may share across several
// Configurations.
func (c *Configuration) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sources := c.sources
	c.mu.Unlock()

	var errs []error
	for _, s := range sources {
		if closer, ok := s.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return joinErrors(errs)
}

// effectiveSnapshot flattens the source chain into a single
// name->string map, applying precedence low-to-high so a
// higher-priority source's value for a shared name wins.
func (c *Configuration) effectiveSnapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string)
	for i := len(c.sources) - 1; i >= 0; i-- {
		for name, value := range snapshotProperties(c.sources[i]) {
			out[name] = value
		}
	}
	return out
}

// Unmarshal decodes the entire effective property set into target, a
// pointer to a struct or map, using struct tags named "config".
func (c *Configuration) Unmarshal(target any) error {
	return c.UnmarshalSubtree("", target)
}

// UnmarshalSubtree decodes the effective property set under basePath
// (dot-separated; "" means the whole tree) into target. This is the
// ambient, non-DI convenience the teacher called Scan/BuildAndScan:
// useful for one-shot struct population without touching
// ProviderRegistry at all.
func (c *Configuration) UnmarshalSubtree(basePath string, target any) error {
	if c.IsClosed() {
		return &ClosedError{Component: "Configuration"}
	}

	nested := make(map[string]any)
	for name, value := range c.effectiveSnapshot() {
		setNestedValue(nested, name, value)
	}

	data := navigateToPath(nested, basePath)
	dataMap, ok := data.(map[string]any)
	if !ok {
		if data == nil {
			dataMap = make(map[string]any)
		} else {
			return fmt.Errorf("confcore: path %q does not refer to a table", basePath)
		}
	}

	decoder, err := newDecoder(target)
	if err != nil {
		return fmt.Errorf("confcore: building decoder: %w", err)
	}
	if err := decoder.Decode(dataMap); err != nil {
		return fmt.Errorf("confcore: decoding path %q: %w", basePath, err)
	}
	return nil
}
