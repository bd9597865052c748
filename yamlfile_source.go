// File: confcore/yamlfile_source.go
package confcore

import "gopkg.in/yaml.v3"

// YAMLFileSource reads a YAML document into a flat dotted-key
// snapshot, supplementing spec.md's explicit source list with the
// other structured format the teacher's own loader already supported.
type YAMLFileSource struct {
	*fileSnapshotSource
}

// NewYAMLFileSource resolves path from candidates (in order, first
// existing file wins) and parses it as YAML.
func NewYAMLFileSource(name string, candidates ...string) (*YAMLFileSource, error) {
	path, err := resolveCandidatePath(candidates)
	if err != nil {
		return nil, err
	}
	base, err := newFileSnapshotSource(name, path, decodeYAML)
	if err != nil {
		return nil, err
	}
	return &YAMLFileSource{fileSnapshotSource: base}, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	out := make(map[string]any)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return normalizeYAMLMap(out), nil
}

// normalizeYAMLMap recursively rewrites the map[string]interface{}
// that go-yaml (v3) actually produces: nested mappings decode as
// map[string]interface{} already under this target type, but
// defensively normalize map[interface{}]interface{} should a document
// produce one via an anchor/alias edge case.
func normalizeYAMLMap(in any) map[string]any {
	switch m := in.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = normalizeYAMLValue(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[stringifyScalar(k)] = normalizeYAMLValue(v)
		}
		return out
	default:
		return map[string]any{}
	}
}

func normalizeYAMLValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return normalizeYAMLMap(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = normalizeYAMLValue(elem)
		}
		return out
	default:
		return t
	}
}
