package sources

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// sqlDialect maps a driver's column type names to kinds and decodes the
// scanned values the dataset cannot normalize on its own
type sqlDialect struct {
	kindForType func(dbType string) (dataset.Kind, bool)
	convert     func(v interface{}, dbType string) interface{}
}

// scanRows reads a result set into a dataset. Column kinds come from the
// reported database types where the dialect knows them.
func scanRows(rows *sql.Rows, dialect sqlDialect) (*dataset.Dataset, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	dbTypes := make([]string, len(names))
	hints := make(map[string]dataset.Kind, len(names))
	if columnTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range columnTypes {
			dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
			if kind, ok := dialect.kindForType(dbTypes[i]); ok {
				hints[names[i]] = kind
			}
		}
	}

	var records [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(names))
		valuePtrs := make([]interface{}, len(names))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			values[i] = dialect.convert(v, dbTypes[i])
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.FromRecords(names, records, hints)
}
