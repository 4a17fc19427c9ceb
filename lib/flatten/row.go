package flatten

// Row is an ordered column to value mapping, Columns and Values always have
// the same length.
type Row struct {
	Columns []string
	Values  []string
}

// NewRow pairs columns with values, missing values are empty and extra
// values are dropped.
func NewRow(columns []string, values []string) Row {
	out := make([]string, len(columns))
	copy(out, values)
	return Row{Columns: columns, Values: out}
}

func (r Row) Lookup(column string) (string, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return "", false
}

// Get returns the value of a column, or an empty string when the row does not
// have it.
func (r Row) Get(column string) string {
	v, _ := r.Lookup(column)
	return v
}

// Map loses the column order, it exists for lookups and assertions.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.Columns))
	for i, c := range r.Columns {
		out[c] = r.Values[i]
	}
	return out
}

// Insert returns a copy of the row with a column placed at position `at`,
// positions past the end append.
func (r Row) Insert(at int, column, value string) Row {
	if at < 0 {
		at = 0
	}
	if at > len(r.Columns) {
		at = len(r.Columns)
	}
	columns := make([]string, 0, len(r.Columns)+1)
	columns = append(columns, r.Columns[:at]...)
	columns = append(columns, column)
	columns = append(columns, r.Columns[at:]...)

	values := make([]string, 0, len(r.Values)+1)
	values = append(values, r.Values[:at]...)
	values = append(values, value)
	values = append(values, r.Values[at:]...)
	return Row{Columns: columns, Values: values}
}

// Select returns the values of the given columns in the given order.
func (r Row) Select(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r.Get(c)
	}
	return out
}
