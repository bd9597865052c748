// File: confcore/tomlfile_source.go
package confcore

import "github.com/BurntSushi/toml"

// TOMLFileSource reads a TOML document into a flat dotted-key
// snapshot. It embeds the shared fileSnapshotSource machinery and only
// supplies the format-specific decode step, matching how the
// reference layering in this package's teacher kept a single
// decode-then-flatten shape across formats.
type TOMLFileSource struct {
	*fileSnapshotSource
}

// NewTOMLFileSource resolves path from candidates (in order, first
// existing file wins) and parses it as TOML.
func NewTOMLFileSource(name string, candidates ...string) (*TOMLFileSource, error) {
	path, err := resolveCandidatePath(candidates)
	if err != nil {
		return nil, err
	}
	base, err := newFileSnapshotSource(name, path, decodeTOML)
	if err != nil {
		return nil, err
	}
	return &TOMLFileSource{fileSnapshotSource: base}, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	out := make(map[string]any)
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
