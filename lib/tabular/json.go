package tabular

import (
	"bytes"
	"encoding/json"
	"io"
)

// WriteJSON writes the table as an array of objects, keys keep the column
// order.
func WriteJSON(w io.Writer, t Table) error {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, values := range t.Values() {
		if i > 0 {
			compact.WriteByte(',')
		}
		compact.WriteByte('{')
		for j, column := range t.Columns {
			if j > 0 {
				compact.WriteByte(',')
			}
			key, err := json.Marshal(column)
			if err != nil {
				return err
			}
			value, err := json.Marshal(values[j])
			if err != nil {
				return err
			}
			compact.Write(key)
			compact.WriteByte(':')
			compact.Write(value)
		}
		compact.WriteByte('}')
	}
	compact.WriteByte(']')

	var indented bytes.Buffer
	err := json.Indent(&indented, compact.Bytes(), "", "  ")
	if err != nil {
		return err
	}
	indented.WriteByte('\n')
	_, err = w.Write(indented.Bytes())
	return err
}
