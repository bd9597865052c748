// File: confcore/properties_file_source.go
package confcore

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// PropertiesFileSource reads a Java-style ".properties" document: flat
// "key=value" (or "key: value" or "key value") lines, "#"/"!"
// full-line comments, and a trailing unescaped backslash continuing a
// value onto the next line. No library in the retrieval pack parses
// this format -- it predates every structured-format library the
// teacher depends on -- so this is a hand-written scanner in the
// teacher's own io.go error-handling style, decoding the file as
// ISO-8859-1 per the format's historical default charset.
type PropertiesFileSource struct {
	*fileSnapshotSource
}

// NewPropertiesFileSource resolves path from candidates and parses it
// as a .properties file.
func NewPropertiesFileSource(name string, candidates ...string) (*PropertiesFileSource, error) {
	path, err := resolveCandidatePath(candidates)
	if err != nil {
		return nil, err
	}
	base, err := newFileSnapshotSource(name, path, decodeProperties)
	if err != nil {
		return nil, err
	}
	return &PropertiesFileSource{fileSnapshotSource: base}, nil
}

func decodeProperties(raw []byte) (map[string]any, error) {
	decoded, err := decodeISO8859_1(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding properties file as ISO-8859-1: %w", err)
	}

	out := make(map[string]any)
	scanner := bufio.NewScanner(bytes.NewReader(decoded))
	var pendingKey string
	var pendingValue strings.Builder
	continuing := false

	for scanner.Scan() {
		line := scanner.Text()

		if continuing {
			trimmed := strings.TrimLeft(line, " \t\f")
			cont, more := splitContinuation(trimmed)
			pendingValue.WriteString(cont)
			if !more {
				out[pendingKey] = unescapePropertyValue(pendingValue.String())
				pendingKey = ""
				pendingValue.Reset()
			}
			continuing = more
			continue
		}

		trimmed := strings.TrimLeft(line, " \t\f")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}

		key, value, found := splitPropertyLine(trimmed)
		if !found {
			continue
		}

		valuePart, more := splitContinuation(value)
		if more {
			pendingKey = key
			pendingValue.Reset()
			pendingValue.WriteString(valuePart)
			continuing = true
			continue
		}
		out[key] = unescapePropertyValue(valuePart)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if continuing {
		out[pendingKey] = unescapePropertyValue(pendingValue.String())
	}
	return out, nil
}

func decodeISO8859_1(raw []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitPropertyLine splits a non-comment, non-blank properties line
// into key and value on the first unescaped '=', ':', or run of
// whitespace, whichever comes first -- matching java.util.Properties'
// natural-key-terminator rule.
func splitPropertyLine(line string) (key, value string, ok bool) {
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' {
			i++
			continue
		}
		switch runes[i] {
		case '=', ':':
			return strings.TrimRight(string(runes[:i]), " \t\f"), strings.TrimLeft(string(runes[i+1:]), " \t\f"), true
		case ' ', '\t', '\f':
			key = string(runes[:i])
			rest := strings.TrimLeft(string(runes[i+1:]), " \t\f")
			if strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, ":") {
				rest = strings.TrimLeft(rest[1:], " \t\f")
			}
			return key, rest, true
		}
	}
	return line, "", true
}

// splitContinuation reports whether value ends in an odd number of
// trailing backslashes (an escaped line continuation) and returns the
// value with that trailing backslash removed if so.
func splitContinuation(value string) (string, bool) {
	trailing := 0
	for i := len(value) - 1; i >= 0 && value[i] == '\\'; i-- {
		trailing++
	}
	if trailing%2 == 1 {
		return value[:len(value)-1], true
	}
	return value, false
}

func unescapePropertyValue(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 >= len(runes) {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 't':
			b.WriteRune('\t')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 'f':
			b.WriteRune('\f')
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}
