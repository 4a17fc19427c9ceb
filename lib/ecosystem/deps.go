package ecosystem

import (
	"context"
	"database/sql"
	"fmt"

	"hl7tools/lib/tabular"
)

const dependenciesQuery = `
SELECT P.Id
FROM Packages P
INNER JOIN DependencyList D ON P.PackageKey = D.TargetKey
WHERE D.SourceKey = (SELECT PackageKey FROM Packages WHERE Id = ?)
ORDER BY P.Id`

// Dependencies returns the ids of the packages that the package with the
// given id depends on. An unknown id has no dependencies.
func Dependencies(ctx context.Context, db *sql.DB, id string) ([]string, error) {
	rows, err := db.QueryContext(ctx, dependenciesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query dependencies of %s: %w", id, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var dep string
		err = rows.Scan(&dep)
		if err != nil {
			return nil, err
		}
		ids = append(ids, dep)
	}
	return ids, rows.Err()
}

// DependenciesTable is Dependencies as a single "dependency" column.
func DependenciesTable(ctx context.Context, db *sql.DB, id string) (tabular.Table, error) {
	ids, err := Dependencies(ctx, db, id)
	if err != nil {
		return tabular.Table{}, err
	}
	table := tabular.Table{Columns: []string{"dependency"}}
	for _, dep := range ids {
		table.AddRow(dep)
	}
	return table, nil
}
