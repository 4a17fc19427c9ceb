package flatten

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mode decides how the value found at a field's path becomes a cell.
type Mode int

const (
	// ModeScalar renders strings, numbers and booleans. A one element list
	// is unwrapped, longer lists and objects become an empty cell.
	ModeScalar Mode = iota
	// ModeJoin joins every scalar element of a list with the field delimiter.
	ModeJoin
	// ModeCount renders the number of elements.
	ModeCount
	// ModeFirst renders the first element of a list.
	ModeFirst
	// ModeJSON renders the value as compact JSON with sorted keys.
	ModeJSON
)

var modeNames = map[Mode]string{
	ModeScalar: "scalar",
	ModeJoin:   "join",
	ModeCount:  "count",
	ModeFirst:  "first",
	ModeJSON:   "json",
}

func (m Mode) String() string {
	name, ok := modeNames[m]
	if !ok {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return name
}

func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if name == s {
			return mode, nil
		}
	}
	return ModeScalar, fmt.Errorf("unknown field mode %q", s)
}

// Field declares one output column.
type Field struct {
	Path   Path
	Column string
	Mode   Mode
	// Delimiter overrides the schema delimiter for ModeJoin.
	Delimiter string
	// Number marks the column as numeric, JSON numbers are rewritten by
	// CanonicalNumber and anything else passes through unchanged with a
	// warning.
	Number bool
	// Constant is the value of a column without a path.
	Constant string
	// Transform post-processes non-empty cells, an error empties the cell.
	Transform func(string) (string, error)
}

// NewField declares a scalar column, the column name defaults to the path.
func NewField(path, column string) (Field, error) {
	p, err := ParsePath(path)
	if err != nil {
		return Field{}, err
	}
	if column == "" {
		column = path
	}
	return Field{Path: p, Column: column}, nil
}

// MustField is NewField for field tables declared in code.
func MustField(path, column string) Field {
	f, err := NewField(path, column)
	if err != nil {
		panic(err)
	}
	return f
}

// Constant declares a column that holds the same value in every row.
func Constant(column, value string) Field {
	return Field{Column: column, Constant: value}
}

func (f Field) Join(delimiter string) Field {
	f.Mode = ModeJoin
	f.Delimiter = delimiter
	return f
}

func (f Field) Count() Field {
	f.Mode = ModeCount
	return f
}

func (f Field) First() Field {
	f.Mode = ModeFirst
	return f
}

func (f Field) JSON() Field {
	f.Mode = ModeJSON
	return f
}

func (f Field) AsNumber() Field {
	f.Number = true
	return f
}

func (f Field) WithTransform(fn func(string) (string, error)) Field {
	f.Transform = fn
	return f
}

// SplitFieldSpec separates `path[:Column]` from the `|` modifiers that
// follow it. Bars inside a quoted key belong to the key.
func SplitFieldSpec(spec string) (string, []string) {
	inQuote := false
	for i := 0; i < len(spec); i++ {
		switch spec[i] {
		case '"':
			inQuote = !inQuote
		case '|':
			if !inQuote {
				return spec[:i], strings.Split(spec[i+1:], "|")
			}
		}
	}
	return spec, nil
}

// ParseFieldSpec parses `path[:Column][|mode][|number]`, a colon or bar
// inside a quoted key does not start the column name or a modifier.
func ParseFieldSpec(spec string) (Field, error) {
	head, modifiers := SplitFieldSpec(spec)

	path, column := head, ""
	inQuote := false
	for i := 0; i < len(head); i++ {
		switch head[i] {
		case '"':
			inQuote = !inQuote
		case ':':
			if !inQuote {
				path, column = head[:i], head[i+1:]
				i = len(head)
			}
		}
	}

	f, err := NewField(strings.TrimSpace(path), strings.TrimSpace(column))
	if err != nil {
		return Field{}, err
	}
	for _, m := range modifiers {
		m = strings.TrimSpace(m)
		if m == "number" {
			f.Number = true
			continue
		}
		mode, err := ParseMode(m)
		if err != nil {
			return Field{}, err
		}
		f.Mode = mode
	}
	return f, nil
}

// ParseFieldSpecs parses a list of field specs.
func ParseFieldSpecs(specs []string) ([]Field, error) {
	fields := make([]Field, 0, len(specs))
	for _, s := range specs {
		f, err := ParseFieldSpec(s)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// ScalarString renders a decoded JSON scalar, ok is false for lists and objects.
func ScalarString(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// cell renders a resolved value, the second return is a non-empty reason when
// the record had to be degraded.
func (f Field) cell(value any, found bool, delimiter string) (string, string) {
	if f.Path.IsZero() {
		return f.Constant, ""
	}
	if !found {
		return "", ""
	}

	var out string
	switch f.Mode {
	case ModeScalar:
		if list, ok := value.([]any); ok {
			switch len(list) {
			case 0:
				return "", ""
			case 1:
				value = list[0]
			default:
				return "", fmt.Sprintf("list of %d values in scalar column", len(list))
			}
		}
		s, ok := ScalarString(value)
		if !ok {
			return "", "non-scalar value in scalar column"
		}
		out = s
	case ModeFirst:
		if list, ok := value.([]any); ok {
			if len(list) == 0 {
				return "", ""
			}
			value = list[0]
		}
		s, ok := ScalarString(value)
		if !ok {
			return "", "non-scalar first element"
		}
		out = s
	case ModeJoin:
		list, ok := value.([]any)
		if !ok {
			list = []any{value}
		}
		if f.Delimiter != "" {
			delimiter = f.Delimiter
		}
		parts := make([]string, 0, len(list))
		reason := ""
		for _, elem := range list {
			if elem == nil {
				continue
			}
			s, ok := ScalarString(elem)
			if !ok {
				reason = "non-scalar element skipped in joined column"
				continue
			}
			parts = append(parts, s)
		}
		out = strings.Join(parts, delimiter)
		if reason != "" {
			return f.finish(out, reason)
		}
	case ModeCount:
		if list, ok := value.([]any); ok {
			return strconv.Itoa(len(list)), ""
		}
		return "1", ""
	case ModeJSON:
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", err.Error()
		}
		out = string(encoded)
	}

	return f.finish(out, "")
}

func (f Field) finish(out, reason string) (string, string) {
	if out == "" {
		return out, reason
	}
	if f.Number {
		n, ok := CanonicalNumber(out)
		if !ok {
			return out, "non-numeric content in numeric column"
		}
		out = n
	}
	if f.Transform != nil {
		transformed, err := f.Transform(out)
		if err != nil {
			return "", err.Error()
		}
		out = transformed
	}
	return out, reason
}
