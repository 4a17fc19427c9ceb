package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// Decode parses JSON keeping numbers as json.Number so they pass through
// exactly as written upstream.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var out any
	err := dec.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}

func DecodeBytes(data []byte) (any, error) {
	return Decode(bytes.NewReader(StripBOM(data)))
}

// Records selects the record list of a document. An empty root takes the
// document itself, a list yields its elements and a single object is one
// record.
func Records(document any, root string) ([]any, error) {
	value := document
	if root != "" {
		p, err := ParsePath(root)
		if err != nil {
			return nil, err
		}
		v, found := p.Resolve(document)
		if !found {
			return nil, fmt.Errorf("no records at %q", root)
		}
		value = v
	}

	switch v := value.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("records at %q are %T, not a list or object", root, value)
}
