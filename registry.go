// File: confcore/registry.go
package confcore

import (
	"encoding"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unsafe"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	reflectTypeType     = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	durationType        = reflect.TypeOf(time.Duration(0))
	timeType            = reflect.TypeOf(time.Time{})
	netIPType           = reflect.TypeOf(net.IP{})
	netIPNetType        = reflect.TypeOf(net.IPNet{})
	urlType             = reflect.TypeOf(url.URL{})
)

// funcConverter is the uniform shape every derived converter takes: a
// fixed target type plus a raw-string-to-any function. User-facing
// converters go through the generic NewConverterFunc instead, but
// everything this registry derives for itself is built from this
// smaller, reflection-friendly primitive.
type funcConverter struct {
	targetType reflect.Type
	fn         func(string) (any, error)
}

func (f *funcConverter) Convert(raw string) (any, error) { return f.fn(raw) }
func (f *funcConverter) TargetType() reflect.Type         { return f.targetType }

func newFuncConverter(t reflect.Type, fn func(string) (any, error)) Converter {
	return &funcConverter{targetType: t, fn: fn}
}

// ConverterRegistry is an indexed store of converters keyed by target
// type, with priority-based arbitration and lazy, memoized derivation
// for types nobody registered explicitly. One RWMutex covers both the
// registration map and the derivation cache, matching spec.md §4.2's
// "concurrent register and convert may interleave but never observe a
// partially updated registration".
type ConverterRegistry struct {
	mu            sync.RWMutex
	registrations map[reflect.Type]registration
	typeHandlers  map[reflect.Type]func(string) (any, error)
	namedTypes    map[string]reflect.Type
	seq           uint64
	closed        bool
}

// NewConverterRegistry returns a registry seeded with the built-in
// scalar type-handler table prescribed by spec.md §9 ("an explicit type
// handler table that the library ships with entries for the common
// scalar types ... plus a user-extension hook").
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{
		registrations: make(map[reflect.Type]registration),
		typeHandlers:  make(map[reflect.Type]func(string) (any, error)),
		namedTypes:    make(map[string]reflect.Type),
	}
	r.seedTypeHandlers()
	return r
}

func (r *ConverterRegistry) seedTypeHandlers() {
	r.typeHandlers[durationType] = func(raw string) (any, error) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	r.typeHandlers[timeType] = func(raw string) (any, error) {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	r.typeHandlers[netIPType] = func(raw string) (any, error) {
		ip := net.ParseIP(raw)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address %q", raw)
		}
		return ip, nil
	}
	r.typeHandlers[netIPNetType] = func(raw string) (any, error) {
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, err
		}
		return *ipNet, nil
	}
}

// RegisterTypeHandler installs (or replaces) the built-in-table entry
// for rt. This is the "user-extension hook" half of spec.md §9's
// derivation substitute: it lets a host add a scalar recipe without
// writing a full Converter.
func (r *ConverterRegistry) RegisterTypeHandler(rt reflect.Type, fn func(string) (any, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typeHandlers[rt] = fn
}

// RegisterNamedType makes name resolvable by the reflect.Type
// derivation recipe (recipe 4: the Go substitute for "load a class by
// fully-qualified name").
func (r *ConverterRegistry) RegisterNamedType(name string, rt reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namedTypes[name] = rt
}

// Register installs converter as the active registration for its
// declared TargetType, unless an existing registration for that type
// already has strictly higher priority.
func (r *ConverterRegistry) Register(converter Converter, opts ...RegisterOption) {
	if converter.TargetType() == nil {
		panic((&UnresolvableTargetError{Converter: converter}).Error())
	}
	o := resolveRegisterOptions(opts)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	candidate := registration{converter: converter, priority: o.priority, seq: r.seq}

	existing, ok := r.registrations[converter.TargetType()]
	if !ok || higherPriority(candidate, existing) {
		r.registrations[converter.TargetType()] = candidate
	}
}

// Convert turns raw into a value of targetType: an explicit
// registration wins outright; otherwise the registry derives a
// converter, memoizes it at the lowest possible priority so any later
// explicit registration still overrides it, and reuses it forever
// after (Testable Property: derivation cache stability).
func (r *ConverterRegistry) Convert(raw string, targetType reflect.Type) (any, error) {
	r.mu.RLock()
	closed := r.closed
	reg, ok := r.registrations[targetType]
	r.mu.RUnlock()
	if closed {
		return nil, &ClosedError{Component: "ConverterRegistry"}
	}
	if ok {
		v, err := reg.converter.Convert(raw)
		if err != nil {
			return nil, &ConversionError{Raw: raw, TargetType: targetType, Err: err}
		}
		return v, nil
	}

	conv, err := r.derive(targetType)
	if err != nil {
		return nil, &UnsupportedTypeError{TargetType: targetType}
	}

	r.mu.Lock()
	if existing, ok := r.registrations[targetType]; ok {
		conv = existing.converter
	} else {
		r.seq++
		r.registrations[targetType] = registration{converter: conv, priority: derivedPriority, seq: r.seq}
	}
	r.mu.Unlock()

	v, err := conv.Convert(raw)
	if err != nil {
		return nil, &ConversionError{Raw: raw, TargetType: targetType, Err: err}
	}
	return v, nil
}

// Close closes every registered converter (including derived ones)
// that implements io.Closer, aggregating failures.
func (r *ConverterRegistry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	regs := make([]registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		regs = append(regs, reg)
	}
	r.mu.Unlock()

	var errs []error
	for _, reg := range regs {
		if closer, ok := reg.converter.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return joinErrors(errs)
}

// derive implements the recipe chain from spec.md §4.2, dispatched by
// reflect.Kind and a handful of exact-type shape checks.
func (r *ConverterRegistry) derive(t reflect.Type) (Converter, error) {
	r.mu.RLock()
	_, hasHandler := r.typeHandlers[t]
	r.mu.RUnlock()

	switch {
	case t.Kind() == reflect.String:
		return newFuncConverter(t, func(raw string) (any, error) {
			return reflect.ValueOf(raw).Convert(t).Interface(), nil
		}), nil

	case t.Kind() == reflect.Bool:
		return newFuncConverter(t, func(raw string) (any, error) {
			switch strings.ToLower(raw) {
			case "true", "y", "yes", "on", "1":
				return true, nil
			default:
				return false, nil
			}
		}), nil

	case t == urlType || (t.Kind() == reflect.Ptr && t.Elem() == urlType):
		isPtr := t.Kind() == reflect.Ptr
		return newFuncConverter(t, func(raw string) (any, error) {
			u, err := url.Parse(raw)
			if err != nil {
				return nil, err
			}
			if isPtr {
				return u, nil
			}
			return *u, nil
		}), nil

	case t == reflectTypeType:
		return newFuncConverter(t, func(raw string) (any, error) {
			r.mu.RLock()
			rt, ok := r.namedTypes[raw]
			r.mu.RUnlock()
			if !ok {
				return nil, fmt.Errorf("no registered type named %q", raw)
			}
			return rt, nil
		}), nil

	case isOptionalType(t):
		return r.deriveOptional(t)

	// A slice type with an exact type handler (net.IP) is a scalar, not
	// a comma-separated list.
	case t.Kind() == reflect.Slice && !hasHandler:
		return r.deriveSlice(t)

	case t.Kind() == reflect.Map && isSetShape(t):
		return r.deriveSet(t)

	case t.Kind() == reflect.Array:
		return r.deriveArray(t)

	default:
		return r.deriveScalar(t)
	}
}

// isOptionalType reports whether t is an instantiation of Optional[E],
// recognized structurally (exported "value"/"present" would not match
// since both fields of Optional are unexported; we match on package
// path + field layout instead of relying on generic instantiation
// names, which are not guaranteed stable across toolchains).
func isOptionalType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return false
	}
	if t.PkgPath() != reflect.TypeOf(Optional[struct{}]{}).PkgPath() {
		return false
	}
	f0, f1 := t.Field(0), t.Field(1)
	return f0.Name == "value" && f1.Name == "present" && f1.Type.Kind() == reflect.Bool
}

func (r *ConverterRegistry) deriveOptional(t reflect.Type) (Converter, error) {
	elemType := t.Field(0).Type
	valueField, presentField := 0, 1

	return newFuncConverter(t, func(raw string) (any, error) {
		out := reflect.New(t).Elem()
		if raw == "" {
			return out.Interface(), nil
		}
		elem, err := r.Convert(raw, elemType)
		if err != nil {
			return nil, err
		}
		// Both fields are unexported, so they are written through an
		// addressable alias rather than with Value.Set directly.
		vf, pf := out.Field(valueField), out.Field(presentField)
		reflect.NewAt(vf.Type(), unsafe.Pointer(vf.UnsafeAddr())).Elem().Set(reflect.ValueOf(elem))
		reflect.NewAt(pf.Type(), unsafe.Pointer(pf.UnsafeAddr())).Elem().SetBool(true)
		return out.Interface(), nil
	}), nil
}

func (r *ConverterRegistry) deriveSlice(t reflect.Type) (Converter, error) {
	elemType := t.Elem()
	return newFuncConverter(t, func(raw string) (any, error) {
		parts := splitEscaped(raw)
		out := reflect.MakeSlice(t, len(parts), len(parts))
		for i, part := range parts {
			elem, err := r.Convert(part, elemType)
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil
	}), nil
}

// isSetShape reports whether t is our generic-Collection<Set<E>>
// substitute: map[E]struct{}. Go has no built-in Set, so this is the
// concrete shape spec.md §4.2 recipe 6 asks derivation to recognize.
func isSetShape(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && elem.NumField() == 0
}

func (r *ConverterRegistry) deriveSet(t reflect.Type) (Converter, error) {
	keyType := t.Key()
	return newFuncConverter(t, func(raw string) (any, error) {
		parts := splitEscaped(raw)
		out := reflect.MakeMapWithSize(t, len(parts))
		empty := reflect.ValueOf(struct{}{})
		for _, part := range parts {
			key, err := r.Convert(part, keyType)
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(reflect.ValueOf(key), empty)
		}
		return out.Interface(), nil
	}), nil
}

func (r *ConverterRegistry) deriveArray(t reflect.Type) (Converter, error) {
	elemType := t.Elem()
	length := t.Len()
	return newFuncConverter(t, func(raw string) (any, error) {
		parts := splitEscaped(raw)
		if len(parts) != length {
			return nil, fmt.Errorf("expected %d elements for %s, got %d", length, t, len(parts))
		}
		out := reflect.New(t).Elem()
		for i, part := range parts {
			elem, err := r.Convert(part, elemType)
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(reflect.ValueOf(elem))
		}
		return out.Interface(), nil
	}), nil
}

// deriveScalar implements recipe 8: TextUnmarshaler first (the
// Go-native "does this type know how to parse itself" check, standing
// in for the of/valueOf/parse/constructor chain), then the exact-type
// handler table (the built-in stdlib shapes above plus anything added
// through the RegisterTypeHandler hook), then the generic numeric
// kinds, in that order.
func (r *ConverterRegistry) deriveScalar(t reflect.Type) (Converter, error) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return newFuncConverter(t, func(raw string) (any, error) {
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		}), nil
	}

	r.mu.RLock()
	fn, ok := r.typeHandlers[t]
	r.mu.RUnlock()
	if ok {
		return newFuncConverter(t, fn), nil
	}

	if conv, ok := numericKindConverter(t); ok {
		return conv, nil
	}

	return nil, &UnsupportedTypeError{TargetType: t}
}

// numericKindConverter covers every defined type whose underlying Kind
// is one of Go's numeric kinds, so a user's `type Port uint16` derives
// correctly without a per-type registration.
func numericKindConverter(t reflect.Type) (Converter, bool) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		return newFuncConverter(t, func(raw string) (any, error) {
			n, err := strconv.ParseInt(raw, 0, bits)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		}), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := t.Bits()
		return newFuncConverter(t, func(raw string) (any, error) {
			n, err := strconv.ParseUint(raw, 0, bits)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		}), true
	case reflect.Float32, reflect.Float64:
		bits := t.Bits()
		return newFuncConverter(t, func(raw string) (any, error) {
			f, err := strconv.ParseFloat(raw, bits)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(f).Convert(t).Interface(), nil
		}), true
	default:
		return nil, false
	}
}
