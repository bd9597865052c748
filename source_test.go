// File: confcore/source_test.go
package confcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name   string
	ord    int
	values map[string]string
}

func (s *stubSource) Name() string    { return s.name }
func (s *stubSource) Ordinal() int    { return s.ord }
func (s *stubSource) Value(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}
func (s *stubSource) PropertyNames() map[string]struct{} {
	out := make(map[string]struct{}, len(s.values))
	for k := range s.values {
		out[k] = struct{}{}
	}
	return out
}

func TestSortSources(t *testing.T) {
	a := &stubSource{name: "b", ord: 100}
	b := &stubSource{name: "a", ord: 100}
	c := &stubSource{name: "z", ord: 300}

	sorted := sortSources([]Source{a, b, c})
	require.Len(t, sorted, 3)
	assert.Equal(t, "z", sorted[0].Name())
	assert.Equal(t, "a", sorted[1].Name())
	assert.Equal(t, "b", sorted[2].Name())
}

func TestSplitEscaped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"multiple", "a,b,c", []string{"a", "b", "c"}},
		{"escaped comma", `a\,b,c`, []string{"a,b", "c"}},
		{"trailing comma", "a,", []string{"a", ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitEscaped(tc.raw))
		})
	}
}

// TestSplitEscapedRoundTrip restricts generated elements to ones with no
// backslash adjacent to a comma and none trailing, the class of input
// where escapeListElement/splitEscaped are genuinely inverse (see
// DESIGN.md's note on spec.md §4.3 vs §8).
func TestSplitEscapedRoundTrip(t *testing.T) {
	cases := [][]string{
		{"a", "b", "c"},
		{"has,comma", "plain"},
		{"  spaced  ", ""},
		{"unicode-é", "emoji-🎉"},
	}
	for _, elems := range cases {
		escaped := make([]string, len(elems))
		for i, e := range elems {
			escaped[i] = escapeListElement(e)
		}
		joined := joinEscaped(escaped)
		got := splitEscaped(joined)
		assert.Equal(t, elems, got)
	}
}
