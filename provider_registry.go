// File: confcore/provider_registry.go
package confcore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"runtime"
	"sync"
)

// ambientScope is the sentinel key Current/CurrentForScope(nil) resolve
// to: the Go substitute for "the caller's ambient scope" from spec.md
// §4.6, since Go has no per-goroutine/per-request implicit context the
// way the reference implementation's thread-local lookup does. It is a
// package-level pointer, so it is never garbage collected and the
// ambient binding only ever goes away via an explicit Release or Close.
var ambientScope = new(struct{})

// ProviderRegistry shares one Configuration per opaque scope key
// without requiring a full dependency-injection container -- the
// direct analogue of the reference implementation's per-scope
// singleton provider. A scope key is typically a *http.Request,
// a context key, or any other pointer a host already threads through
// its call graph.
//
// Pointer-kind keys are released automatically once the garbage
// collector reclaims them, via runtime.SetFinalizer; non-pointer keys
// (plain strings, ints) have no individually-tracked heap object in
// Go, so they rely entirely on an explicit OnScopeEnd call from the
// host. This asymmetry is deliberate, not a gap: Go gives no other way
// to hook value-type lifetime, and SetFinalizer's any-typed signature
// is what makes Register's key parameter able to stay non-generic in
// the first place.
type ProviderRegistry struct {
	mu       sync.Mutex
	bindings map[any]*Configuration
	closed   bool

	defaultArgs      []string
	defaultEnvPrefix string
	discoverer       Discoverer
}

// ProviderRegistryOption configures the defaults Current/CurrentForScope
// build on a scope miss.
type ProviderRegistryOption func(*ProviderRegistry)

// WithDefaultArgs overrides the argument slice (os.Args[1:] otherwise)
// a scope's auto-built default Configuration parses as its FlagSource.
func WithDefaultArgs(args []string) ProviderRegistryOption {
	return func(r *ProviderRegistry) { r.defaultArgs = args }
}

// WithDefaultEnvPrefix sets the EnvSource prefix used when auto-building
// a scope's default Configuration.
func WithDefaultEnvPrefix(prefix string) ProviderRegistryOption {
	return func(r *ProviderRegistry) { r.defaultEnvPrefix = prefix }
}

// WithDefaultDiscoverer attaches the Discoverer used when auto-building
// a scope's default Configuration, mirroring
// ConfigurationBuilder.AddDiscoveredSources/AddDiscoveredConverters.
func WithDefaultDiscoverer(d Discoverer) ProviderRegistryOption {
	return func(r *ProviderRegistry) { r.discoverer = d }
}

// NewProviderRegistry returns an empty ProviderRegistry. By default, a
// scope built automatically by Current/CurrentForScope parses
// os.Args[1:] as its FlagSource and discovers nothing; override either
// with the With* options.
func NewProviderRegistry(opts ...ProviderRegistryOption) *ProviderRegistry {
	r := &ProviderRegistry{
		bindings:    make(map[any]*Configuration),
		defaultArgs: os.Args[1:],
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds key to cfg. Registering the same key a second time
// with a different Configuration returns *AlreadyBoundError;
// re-registering the same (key, cfg) pair is a no-op. The same cfg may
// be bound under any number of distinct keys; Release(cfg) removes all
// of them at once.
func (r *ProviderRegistry) Register(key any, cfg *Configuration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return &ClosedError{Component: "ProviderRegistry"}
	}
	if existing, ok := r.bindings[key]; ok {
		if existing == cfg {
			return nil
		}
		return &AlreadyBoundError{ScopeKey: key}
	}

	r.bindings[key] = cfg
	r.attachFinalizer(key)
	logger().Info("confcore: scope registered", slog.Any("scope", key))
	return nil
}

// attachFinalizer arms a GC finalizer on key that releases key's
// current binding when key becomes unreachable. It resolves key's bound
// Configuration at finalize time (not at registration time) and
// releases that, so Release's by-value semantics still apply correctly
// even if the binding changed in the meantime.
func (r *ProviderRegistry) attachFinalizer(key any) {
	if reflect.ValueOf(key).Kind() != reflect.Ptr {
		return
	}
	runtime.SetFinalizer(key, func(k any) {
		r.mu.Lock()
		cfg, ok := r.bindings[k]
		r.mu.Unlock()
		if !ok {
			return
		}
		if err := r.Release(cfg); err != nil {
			logger().Error("confcore: releasing garbage-collected scope", slog.Any("scope", k), slog.Any("error", err))
		}
	})
}

// Current returns the Configuration bound to the caller's ambient
// scope, building and registering one from this registry's defaults if
// no binding exists yet. It is CurrentForScope(nil).
func (r *ProviderRegistry) Current() (*Configuration, error) {
	return r.CurrentForScope(nil)
}

// CurrentForScope returns the Configuration bound to key, building and
// registering a default one (AddDefaultSources + AddDiscoveredSources +
// AddDiscoveredConverters, per spec.md §4.6) atomically under this
// registry's lock if key has no binding yet. A nil key means the
// ambient scope, the same one Current() resolves.
func (r *ProviderRegistry) CurrentForScope(key any) (*Configuration, error) {
	if key == nil {
		key = ambientScope
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, &ClosedError{Component: "ProviderRegistry"}
	}
	if cfg, ok := r.bindings[key]; ok {
		r.mu.Unlock()
		return cfg, nil
	}

	cfg, err := r.buildDefault(key)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("confcore: building default configuration for scope %v: %w", key, err)
	}
	r.bindings[key] = cfg
	r.attachFinalizer(key)
	r.mu.Unlock()

	logger().Info("confcore: scope registered with defaults", slog.Any("scope", key))
	return cfg, nil
}

// buildDefault assembles the same source/converter set
// ConfigurationBuilder's AddDefaultSources/AddDiscoveredSources/
// AddDiscoveredSourceProviders/AddDiscoveredConverters would, for a
// scope with no explicit registration. key is threaded through
// ForScope so a Discoverer sees exactly the scope it is building for.
func (r *ProviderRegistry) buildDefault(key any) (*Configuration, error) {
	builder := NewConfigurationBuilder().
		ForScope(key).
		AddDefaultSources(r.defaultArgs, r.defaultEnvPrefix)
	if r.discoverer != nil {
		builder = builder.WithDiscoverer(r.discoverer).
			AddDiscoveredSources().
			AddDiscoveredSourceProviders().
			AddDiscoveredConverters()
	}
	return builder.Build()
}

// Release unbinds and closes cfg, removing every scope key currently
// bound to it -- a Configuration shared across several scopes (e.g. the
// ambient scope and an explicit one registered with the same built
// Configuration) is released everywhere at once. Releasing a
// Configuration with no remaining binding is a no-op, so the GC
// finalizer path and an explicit host call can race harmlessly.
func (r *ProviderRegistry) Release(cfg *Configuration) error {
	r.mu.Lock()
	var removed []any
	for key, bound := range r.bindings {
		if bound == cfg {
			delete(r.bindings, key)
			removed = append(removed, key)
		}
	}
	r.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	logger().Info("confcore: scope released", slog.Any("scopes", removed))
	return cfg.Close()
}

// OnScopeEnd is the explicit release path a host calls at the end of a
// non-pointer-keyed scope (a request ID, a job name) that Go cannot
// finalize automatically. It resolves key's current Configuration, then
// releases it (and every other key sharing that Configuration) via
// Release. Calling it for an unknown key is a no-op.
func (r *ProviderRegistry) OnScopeEnd(key any) error {
	if key == nil {
		key = ambientScope
	}
	r.mu.Lock()
	cfg, ok := r.bindings[key]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.Release(cfg)
}

// Close releases and closes every remaining bound Configuration,
// aggregating failures. Close is idempotent.
func (r *ProviderRegistry) Close() error {
	return r.CloseContext(context.Background())
}

// CloseContext is Close with early exit if ctx is canceled between
// scopes; already-closed scopes are not reopened on a subsequent call.
func (r *ProviderRegistry) CloseContext(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	bindings := r.bindings
	r.bindings = make(map[any]*Configuration)
	r.mu.Unlock()

	closed := make(map[*Configuration]struct{}, len(bindings))
	var errs []error
	for key, cfg := range bindings {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, ok := closed[cfg]; ok {
			continue
		}
		closed[cfg] = struct{}{}
		if err := cfg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("confcore: closing scope %v: %w", key, err))
		}
	}
	if err := joinErrors(errs); err != nil {
		logger().Error("confcore: provider registry close finished with errors", slog.Any("error", err))
		return err
	}
	logger().Info("confcore: provider registry closed", slog.Int("scopes", len(bindings)))
	return nil
}
