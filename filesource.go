// File: confcore/filesource.go
package confcore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FileOrdinal is the default ordinal for every built-in file-backed
// source, per spec.md §4.1's precedence table: files lose to
// environment variables, CLI flags, and whatever a host registers
// above them.
const FileOrdinal = 100

// reservedOrdinalKey lets a config file declare its own ordinal,
// overriding FileOrdinal for that one source instance. This is the Go
// translation of the reference implementation's per-source ordinal
// override; since Go sources have no manifest/annotation mechanism,
// the override travels as an ordinary (reserved) property instead.
const reservedOrdinalKey = "config_ordinal"

// fileSnapshotSource is the shared shape behind PropertiesFileSource,
// TOMLFileSource, and YAMLFileSource: a flat name->string snapshot
// read once at construction (or on an explicit Reload), with no
// background watching -- file change notification is out of scope per
// spec.md §1's explicit Non-goal.
type fileSnapshotSource struct {
	name    string
	path    string
	parse   func([]byte) (map[string]any, error)
	mu      sync.RWMutex
	ordinal int
	values  map[string]string
}

func newFileSnapshotSource(name, path string, parse func([]byte) (map[string]any, error)) (*fileSnapshotSource, error) {
	s := &fileSnapshotSource{name: name, path: path, parse: parse, ordinal: FileOrdinal}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads and re-parses the backing file, replacing the
// snapshot atomically under the write lock. Nothing in this package
// calls it; a host wanting fresher values calls it explicitly.
func (s *fileSnapshotSource) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("confcore: reading config file %q: %w", s.path, err)
	}
	decoded, err := s.parse(data)
	if err != nil {
		return fmt.Errorf("confcore: parsing config file %q: %w", s.path, err)
	}

	flat := flattenToStrings(decoded, "")
	ordinal := FileOrdinal
	if raw, ok := flat[reservedOrdinalKey]; ok {
		delete(flat, reservedOrdinalKey)
		if n, err := strconv.Atoi(raw); err == nil {
			ordinal = n
		}
	}

	s.mu.Lock()
	s.values = flat
	s.ordinal = ordinal
	s.mu.Unlock()
	return nil
}

func (s *fileSnapshotSource) Name() string { return s.name }

func (s *fileSnapshotSource) Ordinal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ordinal
}

func (s *fileSnapshotSource) PropertyNames() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]struct{}, len(s.values))
	for k := range s.values {
		names[k] = struct{}{}
	}
	return names
}

func (s *fileSnapshotSource) Value(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

func (s *fileSnapshotSource) Properties() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// resolveCandidatePath returns the first path in candidates that
// exists, or an error naming every candidate tried. This is the Go
// stand-in for the reference implementation's classpath-based config
// discovery: there is no classpath, so the caller supplies an ordered
// list of filesystem locations instead.
func resolveCandidatePath(candidates []string) (string, error) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("confcore: no config file found among candidates %v", candidates)
}

// flattenToStrings turns an arbitrarily nested map[string]any (the
// shape every structured-file decoder in this package produces) into
// a flat dotted-key map[string]string, stringifying scalars and
// comma-joining sequences with escapeListElement so the result round
// trips through the same converter derivation every other source
// uses.
func flattenToStrings(data map[string]any, prefix string) map[string]string {
	out := make(map[string]string)
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			for k, sv := range flattenToStrings(v, fullKey) {
				out[k] = sv
			}
		case []any:
			parts := make([]string, len(v))
			for i, elem := range v {
				parts[i] = escapeListElement(stringifyScalar(elem))
			}
			out[fullKey] = strings.Join(parts, ",")
		default:
			out[fullKey] = stringifyScalar(value)
		}
	}
	return out
}

func stringifyScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
