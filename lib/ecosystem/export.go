package ecosystem

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("hl7tools/ecosystem")

// Download saves the database at url into path.
func Download(ctx context.Context, client *resty.Client, url, path string) error {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()

	body, err := restyutil.GetBytes(ctx, client, url, nil)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(path, body, 0644)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	span.SetAttributes(attribute.Int("bytes", len(body)))
	return nil
}

// Tables lists the user tables of the database by name.
func Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func cellString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// ReadTable loads every row of a table with the database's column order.
func ReadTable(ctx context.Context, db *sql.DB, name string) (tabular.Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return tabular.Table{}, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return tabular.Table{}, err
	}
	table := tabular.Table{Columns: columns}

	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		err = rows.Scan(dest...)
		if err != nil {
			return tabular.Table{}, fmt.Errorf("scan %s: %w", name, err)
		}
		values := make([]string, len(raw))
		for i, v := range raw {
			values[i] = cellString(v)
		}
		table.AddRow(values...)
	}
	return table, rows.Err()
}

// ExportTables writes each table of the database to <dir>/<table>.csv and
// returns the written paths.
func ExportTables(ctx context.Context, db *sql.DB, dir string, opts tabular.CSVOptions) ([]string, error) {
	ctx, span := tracer.Start(ctx, "ExportTables")
	defer span.End()

	names, err := Tables(ctx, db)
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, name := range names {
		table, err := ReadTable(ctx, db, name)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, name+".csv")
		err = tabular.WriteCSVFile(path, table, opts)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	span.SetAttributes(attribute.Int("tables", len(written)))
	return written, nil
}
