// File: confcore/builder_test.go
package confcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationBuilder_FluentAssembly(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		WithSource(&stubSource{name: "a", ord: 100, values: map[string]string{"x": "1"}}).
		Build()
	require.NoError(t, err)

	v, err := cfg.String("x")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestConfigurationBuilder_ValidatorFailureStopsBuild(t *testing.T) {
	sentinel := errors.New("validation failed")
	_, err := NewConfigurationBuilder().
		WithValidator(func(*Configuration) error { return sentinel }).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestConfigurationBuilder_ProviderRegistryRequiresScope(t *testing.T) {
	reg := NewProviderRegistry()
	_, err := NewConfigurationBuilder().
		WithProviderRegistry(reg).
		Build()
	require.Error(t, err)
}

func TestConfigurationBuilder_ProviderRegistryWithScope(t *testing.T) {
	reg := NewProviderRegistry()
	key := "scope-1"
	cfg, err := NewConfigurationBuilder().
		WithProviderRegistry(reg).
		ForScope(key).
		Build()
	require.NoError(t, err)

	got, err := reg.CurrentForScope(key)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestConfigurationBuilder_BuildAndUnmarshal(t *testing.T) {
	type target struct {
		X int `config:"x"`
	}
	var out target
	_, err := NewConfigurationBuilder().
		WithSource(&stubSource{name: "a", ord: 100, values: map[string]string{"x": "5"}}).
		BuildAndUnmarshal(&out)
	require.NoError(t, err)
	assert.Equal(t, 5, out.X)
}
