// File: confcore/config_test.go
package confcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, sources ...Source) *Configuration {
	t.Helper()
	return newConfiguration(sources, NewConverterRegistry())
}

func TestGetValue_PresentAndMissing(t *testing.T) {
	cfg := newTestConfig(t, &stubSource{name: "a", ord: 100, values: map[string]string{"x": "42"}})

	v, err := GetValue[int](cfg, "x")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = GetValue[int](cfg, "missing")
	require.Error(t, err)
	var missing *MissingError
	assert.ErrorAs(t, err, &missing)
}

func TestGetValue_EmptyStringIsPresent(t *testing.T) {
	cfg := newTestConfig(t, &stubSource{name: "a", ord: 100, values: map[string]string{"x": ""}})

	v, err := GetValue[string](cfg, "x")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestGetOptionalValue(t *testing.T) {
	cfg := newTestConfig(t, &stubSource{name: "a", ord: 100, values: map[string]string{"x": "42"}})

	opt, err := GetOptionalValue[int](cfg, "x")
	require.NoError(t, err)
	v, ok := opt.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	opt, err = GetOptionalValue[int](cfg, "missing")
	require.NoError(t, err)
	assert.False(t, opt.IsPresent())
}

func TestConfiguration_PrecedenceAcrossSources(t *testing.T) {
	low := &stubSource{name: "low", ord: 100, values: map[string]string{"k": "low-value"}}
	high := &stubSource{name: "high", ord: 400, values: map[string]string{"k": "high-value"}}

	cfg := newTestConfig(t, low, high)
	v, err := cfg.String("k")
	require.NoError(t, err)
	assert.Equal(t, "high-value", v)
}

func TestConfiguration_Close(t *testing.T) {
	cfg := newTestConfig(t, &stubSource{name: "a", ord: 100, values: map[string]string{"x": "1"}})

	require.NoError(t, cfg.Close())
	assert.True(t, cfg.IsClosed())
	require.NoError(t, cfg.Close()) // idempotent

	_, err := GetValue[int](cfg, "x")
	require.Error(t, err)
	var closed *ClosedError
	assert.ErrorAs(t, err, &closed)
}

func TestConfiguration_Unmarshal(t *testing.T) {
	cfg := newTestConfig(t, &stubSource{name: "a", ord: 100, values: map[string]string{
		"server.host": "localhost",
		"server.port": "8080",
	}})

	type serverConfig struct {
		Host string `config:"host"`
		Port int    `config:"port"`
	}
	type appConfig struct {
		Server serverConfig `config:"server"`
	}

	var target appConfig
	require.NoError(t, cfg.Unmarshal(&target))
	assert.Equal(t, "localhost", target.Server.Host)
	assert.Equal(t, 8080, target.Server.Port)
}

func TestConfiguration_UnmarshalSubtree(t *testing.T) {
	cfg := newTestConfig(t, &stubSource{name: "a", ord: 100, values: map[string]string{
		"server.host": "localhost",
		"server.port": "8080",
	}})

	type serverConfig struct {
		Host string `config:"host"`
		Port int    `config:"port"`
	}

	var target serverConfig
	require.NoError(t, cfg.UnmarshalSubtree("server", &target))
	assert.Equal(t, "localhost", target.Host)
	assert.Equal(t, 8080, target.Port)
}

// TestGetValue_NilResultFallsThroughToNextSource covers Open Question
// (b): a converter returning a nil value for a nilable target kind
// (here *int) is treated as if that source had no value at all, and
// the next source in the chain is consulted instead.
func TestGetValue_NilResultFallsThroughToNextSource(t *testing.T) {
	converters := NewConverterRegistry()
	converters.Register(NewConverterFunc(func(raw string) (*int, error) {
		if raw == "null" {
			return nil, nil
		}
		n := 7
		return &n, nil
	}))

	high := &stubSource{name: "high", ord: 400, values: map[string]string{"x": "null"}}
	low := &stubSource{name: "low", ord: 100, values: map[string]string{"x": "present"}}
	cfg := newConfiguration([]Source{high, low}, converters)

	v, err := GetValue[*int](cfg, "x")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 7, *v)
}

func TestGetOptionalValue_NilResultFallsThroughToNone(t *testing.T) {
	converters := NewConverterRegistry()
	converters.Register(NewConverterFunc(func(raw string) (*int, error) {
		return nil, nil
	}))

	src := &stubSource{name: "a", ord: 100, values: map[string]string{"x": "anything"}}
	cfg := newConfiguration([]Source{src}, converters)

	opt, err := GetOptionalValue[*int](cfg, "x")
	require.NoError(t, err)
	assert.False(t, opt.IsPresent())
}

func TestConfiguration_PropertyNames(t *testing.T) {
	cfg := newTestConfig(t,
		&stubSource{name: "a", ord: 100, values: map[string]string{"x": "1"}},
		&stubSource{name: "b", ord: 200, values: map[string]string{"y": "2"}},
	)
	names := cfg.PropertyNames()
	_, hasX := names["x"]
	_, hasY := names["y"]
	assert.True(t, hasX)
	assert.True(t, hasY)
}
