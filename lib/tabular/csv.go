package tabular

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"hl7tools/lib/flatten"
	"hl7tools/lib/telemetry"
)

type CSVOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// QuoteAll quotes every cell instead of only those that need it.
	QuoteAll bool
}

func (o CSVOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// WriteCSV writes the header row followed by every row, a table without
// rows still produces the header.
func WriteCSV(w io.Writer, t Table, opts CSVOptions) error {
	if opts.QuoteAll {
		return writeQuotedCSV(w, t, opts.delimiter())
	}

	writer := csv.NewWriter(w)
	writer.Comma = opts.delimiter()
	err := writer.Write(t.Columns)
	if err != nil {
		return err
	}
	err = writer.WriteAll(t.Values())
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeQuotedCSV(w io.Writer, t Table, delimiter rune) error {
	buffered := bufio.NewWriter(w)
	writeRecord := func(record []string) {
		for i, cell := range record {
			if i > 0 {
				buffered.WriteRune(delimiter)
			}
			buffered.WriteByte('"')
			buffered.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			buffered.WriteByte('"')
		}
		buffered.WriteByte('\n')
	}

	writeRecord(t.Columns)
	for _, record := range t.Values() {
		writeRecord(record)
	}
	err := buffered.Flush()
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ParseDelimiter accepts a single character or the names "tab" and "\t".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\n' || runes[0] == '\r' {
		return 0, fmt.Errorf("invalid csv delimiter %q", s)
	}
	return runes[0], nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// ReadCSVRows reads every record without treating the first as a header.
func ReadCSVRows(r io.Reader) ([][]string, error) {
	rows, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = string(flatten.StripBOM([]byte(rows[0][0])))
	}
	return rows, nil
}

// ReadCSV reads a csv with a header row. Short rows are padded with empty
// cells and cells past the header are dropped, both are reported.
func ReadCSV(r io.Reader, reporter telemetry.API) (Table, error) {
	rows, err := ReadCSVRows(r)
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("read csv: no header row")
	}
	if reporter == nil {
		reporter = telemetry.NewScopedAPI("csv", telemetry.SlogAPI{})
	}

	header := rows[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	t := Table{Columns: header}
	for i, values := range rows[1:] {
		if len(values) != len(header) {
			reporter.ReportWarning("row-width", "line", i+2, "expected", len(header), "got", len(values))
		}
		t.Rows = append(t.Rows, flatten.NewRow(header, values))
	}
	return t, nil
}
