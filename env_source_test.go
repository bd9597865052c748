// File: confcore/env_source_test.go
package confcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvSource_Value(t *testing.T) {
	env := map[string]string{
		"MYAPP_SERVER_PORT": "9090",
		"EXACT_NAME":        "literal",
	}
	src := &EnvSource{
		prefix: "MYAPP_",
		lookup: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
	}

	v, ok := src.Value("server.port")
	assert.True(t, ok)
	assert.Equal(t, "9090", v)

	v, ok = src.Value("EXACT_NAME")
	assert.True(t, ok)
	assert.Equal(t, "literal", v)

	_, ok = src.Value("nope")
	assert.False(t, ok)
}

func TestEnvSource_PropertyNamesIsEmpty(t *testing.T) {
	src := NewEnvSource("MYAPP_")
	assert.Empty(t, src.PropertyNames())
}

func TestEnvSource_OrdinalAndName(t *testing.T) {
	src := NewEnvSource("")
	assert.Equal(t, EnvOrdinal, src.Ordinal())
	assert.Equal(t, "environment", src.Name())
}
