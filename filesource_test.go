// File: confcore/filesource_test.go
package confcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTOMLFileSource(t *testing.T) {
	path := writeTempFile(t, "app.toml", `
[server]
host = "localhost"
port = 8080
tags = ["a", "b"]
`)
	src, err := NewTOMLFileSource("app", path)
	require.NoError(t, err)

	v, ok := src.Value("server.host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)

	v, ok = src.Value("server.port")
	assert.True(t, ok)
	assert.Equal(t, "8080", v)

	v, ok = src.Value("server.tags")
	assert.True(t, ok)
	assert.Equal(t, "a,b", v)

	assert.Equal(t, FileOrdinal, src.Ordinal())
}

func TestYAMLFileSource(t *testing.T) {
	path := writeTempFile(t, "app.yaml", "server:\n  host: localhost\n  port: 8080\n")
	src, err := NewYAMLFileSource("app", path)
	require.NoError(t, err)

	v, ok := src.Value("server.host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)
}

func TestFileSnapshotSource_OrdinalOverride(t *testing.T) {
	path := writeTempFile(t, "app.toml", `
config_ordinal = 999
key = "value"
`)
	src, err := NewTOMLFileSource("app", path)
	require.NoError(t, err)
	assert.Equal(t, 999, src.Ordinal())

	_, ok := src.Value("config_ordinal")
	assert.False(t, ok)
}

func TestFileSnapshotSource_Reload(t *testing.T) {
	path := writeTempFile(t, "app.toml", `key = "first"`)
	src, err := NewTOMLFileSource("app", path)
	require.NoError(t, err)

	v, _ := src.Value("key")
	assert.Equal(t, "first", v)

	require.NoError(t, os.WriteFile(path, []byte(`key = "second"`), 0o644))
	require.NoError(t, src.Reload())

	v, _ = src.Value("key")
	assert.Equal(t, "second", v)
}

func TestPropertiesFileSource(t *testing.T) {
	path := writeTempFile(t, "app.properties", "# comment\nserver.host=localhost\nserver.port = 8080\n")
	src, err := NewPropertiesFileSource("app", path)
	require.NoError(t, err)

	v, ok := src.Value("server.host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)

	v, ok = src.Value("server.port")
	assert.True(t, ok)
	assert.Equal(t, "8080", v)
}

func TestResolveCandidatePath_NoneExist(t *testing.T) {
	_, err := resolveCandidatePath([]string{"/nonexistent/a.toml", "/nonexistent/b.toml"})
	require.Error(t, err)
}
