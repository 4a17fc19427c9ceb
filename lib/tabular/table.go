package tabular

import (
	"hl7tools/lib/flatten"
)

// Table is the in-memory result of a run, written out in one go.
type Table struct {
	Columns []string
	Rows    []flatten.Row
}

// FromSchema flattens every record with the schema.
func FromSchema(schema flatten.Schema, records []any) Table {
	return Table{
		Columns: schema.Columns(),
		Rows:    schema.FlattenAll(records),
	}
}

// AddRow appends a row given as values in column order.
func (t *Table) AddRow(values ...string) {
	t.Rows = append(t.Rows, flatten.NewRow(t.Columns, values))
}

// Values returns the cells of every row aligned to the table columns.
func (t Table) Values() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Select(t.Columns)
	}
	return out
}

// Column returns every value of one column.
func (t Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Get(name)
	}
	return out
}
