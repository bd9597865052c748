// File: confcore/discovery.go
package confcore

import (
	"os"
	"path/filepath"
)

// DiscoveredConverter pairs a Converter with the priority
// ConfigurationBuilder should register it at. This is the Go
// substitute for the reference implementation's service-loader
// manifest entry, which can carry metadata (priority) alongside the
// implementation class name.
type DiscoveredConverter struct {
	Converter Converter
	Priority  int
}

// SourceProvider builds Sources for a specific scope on demand, the Go
// analogue of a scope-aware service-loader provider: unlike a static
// Source returned once by DiscoverSources, a SourceProvider is
// consulted every time a scope needs its sources built (e.g. from
// ProviderRegistry.CurrentForScope on a miss), so it can vary what it
// returns per scopeKey.
type SourceProvider interface {
	Sources(scopeKey any) []Source
}

// Discoverer is the extension-point SPI a host plugs in to add
// sources, scope-aware source providers, and converters without the
// builder needing to know about them in advance -- the Go analogue of
// the reference implementation's ServiceLoader-discovered provider
// classes. Every method takes the scope a discovery is being performed
// for; a nil scopeKey means the ambient scope, matching
// ProviderRegistry's own convention. Implementations that have no
// notion of scope (most file/env discovery) simply ignore the
// parameter.
type Discoverer interface {
	DiscoverSources(scopeKey any) []Source
	DiscoverSourceProviders(scopeKey any) []SourceProvider
	DiscoverConverters(scopeKey any) []DiscoveredConverter
}

// NopDiscoverer implements Discoverer with nothing discovered; it is
// the ConfigurationBuilder default so callers who never need discovery
// don't have to nil-check. Per spec.md §1, no other default Discoverer
// implementation ships in this module -- discovery's actual mechanism
// (a plugin registry, a service-loader-style scan) is an external
// collaborator.
type NopDiscoverer struct{}

func (NopDiscoverer) DiscoverSources(scopeKey any) []Source { return nil }
func (NopDiscoverer) DiscoverSourceProviders(scopeKey any) []SourceProvider {
	return nil
}
func (NopDiscoverer) DiscoverConverters(scopeKey any) []DiscoveredConverter { return nil }

// XDGFileDiscoverer discovers a single structured config file by
// walking, in order: a path named directly by an environment
// variable, the current working directory, then the XDG config
// locations -- the same search the teacher's file-discovery helper
// performed for its single hard-coded TOML case, generalized here to
// either the TOML or the YAML file source constructor. It has no
// scope-dependent behavior: DiscoverSources ignores scopeKey, and it
// discovers no SourceProviders or Converters.
type XDGFileDiscoverer struct {
	AppName string
	EnvVar  string
	ext     string
	newFile func(name string, candidates ...string) (Source, error)
}

// NewXDGTOMLDiscoverer builds an XDGFileDiscoverer that, when asked
// for sources, looks for "<appName>.toml" via TOMLFileSource.
func NewXDGTOMLDiscoverer(appName, envVar string) *XDGFileDiscoverer {
	return &XDGFileDiscoverer{
		AppName: appName,
		EnvVar:  envVar,
		ext:     ".toml",
		newFile: func(name string, candidates ...string) (Source, error) {
			return NewTOMLFileSource(name, candidates...)
		},
	}
}

// NewXDGYAMLDiscoverer is NewXDGTOMLDiscoverer's YAML counterpart.
func NewXDGYAMLDiscoverer(appName, envVar string) *XDGFileDiscoverer {
	return &XDGFileDiscoverer{
		AppName: appName,
		EnvVar:  envVar,
		ext:     ".yaml",
		newFile: func(name string, candidates ...string) (Source, error) {
			return NewYAMLFileSource(name, candidates...)
		},
	}
}

func (d *XDGFileDiscoverer) DiscoverSources(scopeKey any) []Source {
	candidates := d.candidatePaths()
	src, err := d.newFile(d.AppName, candidates...)
	if err != nil {
		return nil
	}
	return []Source{src}
}

func (d *XDGFileDiscoverer) DiscoverSourceProviders(scopeKey any) []SourceProvider { return nil }

func (d *XDGFileDiscoverer) DiscoverConverters(scopeKey any) []DiscoveredConverter { return nil }

func (d *XDGFileDiscoverer) candidatePaths() []string {
	fileName := d.AppName + d.ext
	var paths []string

	if d.EnvVar != "" {
		if explicit := os.Getenv(d.EnvVar); explicit != "" {
			paths = append(paths, explicit)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, fileName))
	}

	for _, dir := range xdgConfigDirs(d.AppName) {
		paths = append(paths, filepath.Join(dir, fileName))
	}
	return paths
}

// xdgConfigDirs returns the XDG Base Directory Specification's config
// search path for appName: $XDG_CONFIG_HOME (or ~/.config) first, then
// $XDG_CONFIG_DIRS (or the system defaults).
func xdgConfigDirs(appName string) []string {
	var dirs []string

	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", appName))
	}

	if sysDirs := os.Getenv("XDG_CONFIG_DIRS"); sysDirs != "" {
		for _, dir := range filepath.SplitList(sysDirs) {
			dirs = append(dirs, filepath.Join(dir, appName))
		}
	} else {
		dirs = append(dirs, filepath.Join("/etc/xdg", appName), filepath.Join("/etc", appName))
	}

	return dirs
}
