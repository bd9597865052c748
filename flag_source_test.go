// File: confcore/flag_source_test.go
package confcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSource_ParseForms(t *testing.T) {
	src, err := NewFlagSource([]string{
		"--server.host=localhost",
		"--server.port=8080",
		"-Dfeature.flag=true",
		"--verbose",
	})
	require.NoError(t, err)

	v, ok := src.Value("server.host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)

	v, ok = src.Value("server.port")
	assert.True(t, ok)
	assert.Equal(t, "8080", v)

	v, ok = src.Value("feature.flag")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	v, ok = src.Value("verbose")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestFlagSource_OrdinalAndName(t *testing.T) {
	src, err := NewFlagSource(nil)
	require.NoError(t, err)
	assert.Equal(t, FlagOrdinal, src.Ordinal())
	assert.Equal(t, "flags", src.Name())
}
