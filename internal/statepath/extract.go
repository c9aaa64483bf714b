package statepath

import (
	"strconv"
	"strings"
)

// Extract resolves a path expression against a decoded document.
//
// The document is the generic tree produced by encoding/json: maps
// (map[string]any), slices ([]any) and scalars. The path grammar is:
//
//	$            root (optional leading token)
//	.field       member access on a map
//	[n]          zero-based index into a slice
//
// Segments chain freely: "$.sensors[0].temp". An empty path or a bare
// "$" returns the document unchanged.
//
// Returns:
//   - any: The value at the path
//   - bool: false if any segment is missing, out of range, or applied
//     to a value of the wrong type. A malformed path also reports false.
func Extract(doc any, path string) (any, bool) {
	rest := strings.TrimPrefix(path, "$")
	if rest == "" {
		return doc, true
	}

	current := doc
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			field, remainder := readField(rest[1:])
			if field == "" {
				return nil, false
			}
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			value, ok := m[field]
			if !ok {
				return nil, false
			}
			current = value
			rest = remainder

		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, false
			}
			index, err := strconv.Atoi(rest[1:end])
			if err != nil || index < 0 {
				return nil, false
			}
			seq, ok := current.([]any)
			if !ok || index >= len(seq) {
				return nil, false
			}
			current = seq[index]
			rest = rest[end+1:]

		default:
			return nil, false
		}
	}

	return current, true
}

// readField consumes a member name up to the next '.' or '[' separator.
func readField(s string) (field, rest string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == '[' {
			return s[:i], s[i:]
		}
	}
	return s, ""
}
