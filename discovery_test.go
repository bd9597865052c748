// File: confcore/discovery_test.go
package confcore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGFileDiscoverer_FindsExplicitEnvPath(t *testing.T) {
	path := writeTempFile(t, "app.toml", `key = "value"`)
	t.Setenv("APP_CONFIG", path)

	d := NewXDGTOMLDiscoverer("app", "APP_CONFIG")
	sources := d.DiscoverSources(nil)
	require.Len(t, sources, 1)

	v, ok := sources[0].Value("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestXDGFileDiscoverer_FindsInCWD(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.toml"), []byte(`key = "from-cwd"`), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	d := NewXDGTOMLDiscoverer("app", "")
	sources := d.DiscoverSources(nil)
	require.Len(t, sources, 1)

	v, ok := sources[0].Value("key")
	assert.True(t, ok)
	assert.Equal(t, "from-cwd", v)
}

func TestXDGFileDiscoverer_NoFileFound(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "nonexistent-config"))

	d := NewXDGTOMLDiscoverer("doesnotexist", "")
	assert.Empty(t, d.DiscoverSources(nil))
}

func TestNopDiscoverer(t *testing.T) {
	d := NopDiscoverer{}
	assert.Nil(t, d.DiscoverSources(nil))
	assert.Nil(t, d.DiscoverSourceProviders(nil))
	assert.Nil(t, d.DiscoverConverters(nil))
}

func TestConfigurationBuilder_AddDiscoveredSourceProviders(t *testing.T) {
	provider := scopedSourceProviderFunc(func(scopeKey any) []Source {
		return []Source{&stubSource{name: "scoped", ord: 100, values: map[string]string{"scope": fmt.Sprintf("%v", scopeKey)}}}
	})
	disc := &stubDiscoverer{sourceProviders: []SourceProvider{provider}}

	cfg, err := NewConfigurationBuilder().
		WithDiscoverer(disc).
		ForScope("tenant-a").
		AddDiscoveredSourceProviders().
		Build()
	require.NoError(t, err)

	v, err := cfg.String("scope")
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", v)
}

type scopedSourceProviderFunc func(scopeKey any) []Source

func (f scopedSourceProviderFunc) Sources(scopeKey any) []Source { return f(scopeKey) }

type stubDiscoverer struct {
	sources         []Source
	sourceProviders []SourceProvider
	converters      []DiscoveredConverter
}

func (d *stubDiscoverer) DiscoverSources(scopeKey any) []Source { return d.sources }
func (d *stubDiscoverer) DiscoverSourceProviders(scopeKey any) []SourceProvider {
	return d.sourceProviders
}
func (d *stubDiscoverer) DiscoverConverters(scopeKey any) []DiscoveredConverter { return d.converters }
