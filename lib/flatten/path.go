package flatten

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadPath = errors.New("bad field path")

type segmentKind int

const (
	segmentKey segmentKind = iota
	segmentIndex
	segmentWildcard
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

// Path addresses a value inside a decoded JSON tree.
//
//	fields.summary
//	fields.fixVersions[0].name
//	fields.components[*].name
//	packages["hl7.fhir.us.core"].dependencies
//
// A key applied to a list is applied to each of its elements.
type Path struct {
	raw      string
	segments []segment
}

func (p Path) String() string {
	return p.raw
}

func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

func badPath(raw string, pos int, reason string) error {
	return fmt.Errorf("%w %q at offset %d: %s", ErrBadPath, raw, pos, reason)
}

func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, badPath(raw, 0, "empty path")
	}

	var segments []segment
	i := 0
	expectKey := true
	for i < len(raw) {
		switch {
		case raw[i] == '[':
			end, seg, err := parseBracket(raw, i)
			if err != nil {
				return Path{}, err
			}
			segments = append(segments, seg)
			i = end
			expectKey = false
		case raw[i] == '.':
			if expectKey {
				return Path{}, badPath(raw, i, "empty key")
			}
			i++
			expectKey = true
			if i == len(raw) {
				return Path{}, badPath(raw, i, "trailing dot")
			}
		default:
			if !expectKey {
				return Path{}, badPath(raw, i, "expected '.' or '['")
			}
			start := i
			for i < len(raw) && raw[i] != '.' && raw[i] != '[' {
				i++
			}
			segments = append(segments, segment{kind: segmentKey, key: raw[start:i]})
			expectKey = false
		}
	}

	return Path{raw: raw, segments: segments}, nil
}

// parseBracket parses `[0]`, `[*]` or `["key"]` starting at raw[start] == '['.
func parseBracket(raw string, start int) (int, segment, error) {
	i := start + 1
	if i >= len(raw) {
		return 0, segment{}, badPath(raw, start, "unterminated '['")
	}

	if raw[i] == '"' {
		closing := strings.IndexByte(raw[i+1:], '"')
		if closing < 0 {
			return 0, segment{}, badPath(raw, i, "unterminated quoted key")
		}
		key := raw[i+1 : i+1+closing]
		i = i + 1 + closing + 1
		if i >= len(raw) || raw[i] != ']' {
			return 0, segment{}, badPath(raw, i, "expected ']' after quoted key")
		}
		return i + 1, segment{kind: segmentKey, key: key}, nil
	}

	closing := strings.IndexByte(raw[i:], ']')
	if closing < 0 {
		return 0, segment{}, badPath(raw, start, "unterminated '['")
	}
	inner := raw[i : i+closing]
	end := i + closing + 1
	if inner == "*" {
		return end, segment{kind: segmentWildcard}, nil
	}
	index, err := strconv.Atoi(inner)
	if err != nil || index < 0 {
		return 0, segment{}, badPath(raw, i, fmt.Sprintf("invalid index %q", inner))
	}
	return end, segment{kind: segmentIndex, index: index}, nil
}

// KeyPath addresses nested object keys taken literally, for keys that would
// need quoting.
func KeyPath(keys ...string) Path {
	segments := make([]segment, len(keys))
	quoted := make([]string, len(keys))
	for i, k := range keys {
		segments[i] = segment{kind: segmentKey, key: k}
		quoted[i] = fmt.Sprintf("[%q]", k)
	}
	return Path{raw: strings.Join(quoted, ""), segments: segments}
}

func MustParsePath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Resolve walks the record, found is false when any step is missing or null.
func (p Path) Resolve(record any) (value any, found bool) {
	return resolve(record, p.segments)
}

func resolve(value any, segments []segment) (any, bool) {
	if value == nil {
		return nil, false
	}
	if len(segments) == 0 {
		return value, true
	}

	seg := segments[0]
	rest := segments[1:]
	switch seg.kind {
	case segmentKey:
		switch v := value.(type) {
		case map[string]any:
			child, ok := v[seg.key]
			if !ok {
				return nil, false
			}
			return resolve(child, rest)
		case []any:
			return resolveEach(v, segments)
		}
		return nil, false
	case segmentIndex:
		list, ok := value.([]any)
		if !ok {
			// a scalar stands in for a one element list
			if seg.index == 0 {
				return resolve(value, rest)
			}
			return nil, false
		}
		if seg.index >= len(list) {
			return nil, false
		}
		return resolve(list[seg.index], rest)
	case segmentWildcard:
		list, ok := value.([]any)
		if !ok {
			list = []any{value}
		}
		return resolveEach(list, rest)
	}
	return nil, false
}

func resolveEach(list []any, segments []segment) (any, bool) {
	out := []any{}
	for _, elem := range list {
		v, ok := resolve(elem, segments)
		if !ok {
			continue
		}
		if nested, isList := v.([]any); isList {
			out = append(out, nested...)
			continue
		}
		out = append(out, v)
	}
	return out, true
}
