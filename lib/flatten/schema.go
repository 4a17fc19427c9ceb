package flatten

import (
	"fmt"

	"hl7tools/lib/telemetry"
)

// DefaultDelimiter joins list values in ModeJoin columns.
const DefaultDelimiter = ";"

// Schema is the fixed, ordered column set of a run.
type Schema struct {
	fields    []Field
	columns   []string
	delimiter string
	reporter  telemetry.API
}

type Option func(*Schema)

func WithDelimiter(delimiter string) Option {
	return func(s *Schema) {
		s.delimiter = delimiter
	}
}

// WithReporter sets where degraded records are reported, by default they are
// logged through slog.
func WithReporter(api telemetry.API) Option {
	return func(s *Schema) {
		s.reporter = api
	}
}

func NewSchema(fields []Field, opts ...Option) (Schema, error) {
	s := Schema{
		fields:    fields,
		delimiter: DefaultDelimiter,
		reporter:  telemetry.NewScopedAPI("flatten", telemetry.SlogAPI{}),
	}
	for _, o := range opts {
		o(&s)
	}

	seen := make(map[string]struct{}, len(fields))
	s.columns = make([]string, len(fields))
	for i, f := range fields {
		if f.Column == "" {
			return Schema{}, fmt.Errorf("field %d has no column name", i)
		}
		if _, dup := seen[f.Column]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", f.Column)
		}
		seen[f.Column] = struct{}{}
		s.columns[i] = f.Column
	}
	return s, nil
}

// MustSchema is NewSchema for schemas declared in code.
func MustSchema(fields []Field, opts ...Option) Schema {
	s, err := NewSchema(fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s Schema) Fields() []Field {
	return s.fields
}

// Flatten never fails, whatever cannot be rendered becomes an empty cell.
func (s Schema) Flatten(record any) Row {
	return s.flatten(record, -1)
}

func (s Schema) FlattenAll(records []any) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = s.flatten(r, i)
	}
	return rows
}

func (s Schema) flatten(record any, index int) Row {
	values := make([]string, len(s.fields))
	for i, f := range s.fields {
		var (
			value any
			found bool
		)
		if !f.Path.IsZero() {
			value, found = f.Path.Resolve(record)
		}
		cell, reason := f.cell(value, found, s.delimiter)
		if reason != "" {
			s.reporter.ReportWarning("cell", "record", index, "column", f.Column, "reason", reason)
		}
		values[i] = cell
	}
	return Row{Columns: s.Columns(), Values: values}
}
