// File: confcore/builder.go
package confcore

import "fmt"

// ValidatorFunc validates a fully-built Configuration; Build returns
// the first validation error in registration order, the same
// fail-fast contract the teacher's own ValidatorFunc had.
type ValidatorFunc func(*Configuration) error

// ConfigurationBuilder assembles a Configuration's source chain and
// converter registry with a fluent interface, then optionally binds
// the result into a ProviderRegistry scope.
type ConfigurationBuilder struct {
	sources     []Source
	converters  *ConverterRegistry
	discoverer  Discoverer
	providerReg *ProviderRegistry
	scopeKey    any
	hasScopeKey bool
	validators  []ValidatorFunc
	err         error
}

// NewConfigurationBuilder returns a builder with a fresh
// ConverterRegistry and a no-op Discoverer.
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{
		converters: NewConverterRegistry(),
		discoverer: NopDiscoverer{},
	}
}

// WithSource appends a source to the chain. Order of calls does not
// matter: Build sorts the final chain by ordinal.
func (b *ConfigurationBuilder) WithSource(s Source) *ConfigurationBuilder {
	b.sources = append(b.sources, s)
	return b
}

// WithConverter registers a single converter against the builder's
// ConverterRegistry.
func (b *ConfigurationBuilder) WithConverter(c Converter, opts ...RegisterOption) *ConfigurationBuilder {
	b.converters.Register(c, opts...)
	return b
}

// WithConverters registers several converters at DefaultPriority in
// one call.
func (b *ConfigurationBuilder) WithConverters(cs ...Converter) *ConfigurationBuilder {
	for _, c := range cs {
		b.converters.Register(c)
	}
	return b
}

// WithDiscoverer installs a Discoverer for AddDiscoveredSources and
// AddDiscoveredConverters to pull from.
func (b *ConfigurationBuilder) WithDiscoverer(d Discoverer) *ConfigurationBuilder {
	if d != nil {
		b.discoverer = d
	}
	return b
}

// WithValidator adds a validation function that Build runs, in
// registration order, against the finished Configuration before
// returning it.
func (b *ConfigurationBuilder) WithValidator(fn ValidatorFunc) *ConfigurationBuilder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithProviderRegistry arranges for Build to register the finished
// Configuration into registry under the key set by ForScope. Calling
// Build without a prior ForScope in this case is an error.
func (b *ConfigurationBuilder) WithProviderRegistry(registry *ProviderRegistry) *ConfigurationBuilder {
	b.providerReg = registry
	return b
}

// ForScope sets the scope key Build uses when a ProviderRegistry has
// been attached via WithProviderRegistry.
func (b *ConfigurationBuilder) ForScope(key any) *ConfigurationBuilder {
	b.scopeKey = key
	b.hasScopeKey = true
	return b
}

// AddDefaultSources wires the two always-available built-in sources:
// command-line flags (highest precedence) and environment variables.
// args is typically os.Args[1:]; envPrefix may be empty.
func (b *ConfigurationBuilder) AddDefaultSources(args []string, envPrefix string) *ConfigurationBuilder {
	b.WithSource(NewEnvSource(envPrefix))
	flags, err := NewFlagSource(args)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.WithSource(flags)
	return b
}

// scopeKeyOrNil returns the scope key ForScope set, or nil for a
// builder with no scope -- the same "nil means ambient" convention
// ProviderRegistry.CurrentForScope uses, so a Discoverer sees exactly
// the scope its sources/converters are being assembled for.
func (b *ConfigurationBuilder) scopeKeyOrNil() any {
	if b.hasScopeKey {
		return b.scopeKey
	}
	return nil
}

// AddDiscoveredSources appends every source the builder's Discoverer
// reports for this builder's scope (ForScope, or the ambient scope if
// unset).
func (b *ConfigurationBuilder) AddDiscoveredSources() *ConfigurationBuilder {
	for _, s := range b.discoverer.DiscoverSources(b.scopeKeyOrNil()) {
		b.WithSource(s)
	}
	return b
}

// AddDiscoveredSourceProviders appends the sources every
// scope-aware SourceProvider the builder's Discoverer reports builds
// for this builder's scope.
func (b *ConfigurationBuilder) AddDiscoveredSourceProviders() *ConfigurationBuilder {
	scopeKey := b.scopeKeyOrNil()
	for _, provider := range b.discoverer.DiscoverSourceProviders(scopeKey) {
		for _, s := range provider.Sources(scopeKey) {
			b.WithSource(s)
		}
	}
	return b
}

// AddDiscoveredConverters registers every converter the builder's
// Discoverer reports for this builder's scope, at the priority it
// specified.
func (b *ConfigurationBuilder) AddDiscoveredConverters() *ConfigurationBuilder {
	for _, dc := range b.discoverer.DiscoverConverters(b.scopeKeyOrNil()) {
		b.converters.Register(dc.Converter, WithPriority(dc.Priority))
	}
	return b
}

// Build validates the accumulated options and produces the
// Configuration. If a ProviderRegistry was attached, the Configuration
// is also registered into it under the configured scope key before
// being returned.
func (b *ConfigurationBuilder) Build() (*Configuration, error) {
	if b.err != nil {
		return nil, b.err
	}

	cfg := newConfiguration(b.sources, b.converters)

	for _, validate := range b.validators {
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("confcore: configuration validation failed: %w", err)
		}
	}

	if b.providerReg != nil {
		if !b.hasScopeKey {
			return nil, fmt.Errorf("confcore: WithProviderRegistry requires ForScope to also be called")
		}
		if err := b.providerReg.Register(b.scopeKey, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// BuildAndUnmarshal builds the Configuration and immediately decodes
// its full effective property set into target, the ambient
// convenience the teacher called BuildAndScan.
func (b *ConfigurationBuilder) BuildAndUnmarshal(target any) (*Configuration, error) {
	cfg, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := cfg.Unmarshal(target); err != nil {
		return cfg, fmt.Errorf("confcore: decoding final configuration: %w", err)
	}
	return cfg, nil
}
