// Package dataset holds the in-memory columnar tables produced by data
// sources and consumed by validation strategies.
package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrRaggedColumns    = errors.New("all columns in a dataset must have the same length")
	ErrDuplicateColumn  = errors.New("duplicate column name")
	ErrColumnNotFound   = errors.New("column not found")
	ErrRecordWidthWrong = errors.New("record width does not match column count")
)

// Column is a named sequence of normalized values of a single logical kind
type Column struct {
	Name   string
	Kind   Kind
	Values []interface{}
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	return len(c.Values)
}

// Value returns the cell at row i, or nil when i is past the end.
// Comparisons are positional, so the shorter side reads as missing.
func (c *Column) Value(i int) interface{} {
	if i < 0 || i >= len(c.Values) {
		return nil
	}
	return c.Values[i]
}

// Dataset is an ordered set of equal-length named columns.
// A Dataset is never modified after construction.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a dataset from columns. Values are normalized and, when Kind is
// KindNull, the kind is inferred from the values.
func New(columns ...Column) (*Dataset, error) {
	d := &Dataset{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, col := range columns {
		if _, exists := d.index[col.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name)
		}
		if i == 0 {
			d.rows = len(col.Values)
		} else if len(col.Values) != d.rows {
			return nil, fmt.Errorf("%w: column %s has %d rows, expected %d", ErrRaggedColumns, col.Name, len(col.Values), d.rows)
		}

		values := make([]interface{}, len(col.Values))
		for j, v := range col.Values {
			values[j] = Normalize(v)
		}

		kind := col.Kind
		if kind == KindNull {
			kind, _ = inferKind(values)
		}

		d.index[col.Name] = len(d.columns)
		d.columns = append(d.columns, &Column{Name: col.Name, Kind: kind, Values: values})
	}

	return d, nil
}

// FromRows builds a dataset from row maps as produced by the formatters
// readers. Columns follow names; a key missing from a row reads as nil.
func FromRows(names []string, rows []map[string]interface{}) *Dataset {
	d := &Dataset{
		columns: make([]*Column, 0, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(rows),
	}

	for _, name := range names {
		if _, exists := d.index[name]; exists {
			continue
		}
		values := make([]interface{}, len(rows))
		for i, row := range rows {
			values[i] = Normalize(row[name])
		}
		kind, _ := inferKind(values)
		d.index[name] = len(d.columns)
		d.columns = append(d.columns, &Column{Name: name, Kind: kind, Values: values})
	}

	return d
}

// FromRecords builds a dataset from positional records, as scanned from SQL
// rows. hints supplies the kind of columns whose values are all missing.
func FromRecords(names []string, records [][]interface{}, hints map[string]Kind) (*Dataset, error) {
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Values: make([]interface{}, len(records))}
	}

	for r, record := range records {
		if len(record) != len(names) {
			return nil, fmt.Errorf("%w: record %d has %d values, expected %d", ErrRecordWidthWrong, r, len(record), len(names))
		}
		for i, v := range record {
			columns[i].Values[r] = v
		}
	}

	d, err := New(columns...)
	if err != nil {
		return nil, err
	}
	// New sets rows from the first column; keep the record count for zero-column input
	if len(names) == 0 {
		d.rows = len(records)
	}

	for name, kind := range hints {
		if idx, ok := d.index[name]; ok {
			if _, found := inferKind(d.columns[idx].Values); !found {
				d.columns[idx].Kind = kind
			}
		}
	}

	return d, nil
}

// RowCount returns the number of rows
func (d *Dataset) RowCount() int {
	return d.rows
}

// ColumnNames returns the column names in insertion order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, bool) {
	idx, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[idx], true
}

// Columns returns the columns in insertion order
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Project returns a dataset restricted to names, in the given order.
// Column values are shared with the receiver and must be treated as read-only.
func (d *Dataset) Project(names []string) (*Dataset, error) {
	p := &Dataset{
		columns: make([]*Column, 0, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    d.rows,
	}
	for _, name := range names {
		col, ok := d.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
		if _, exists := p.index[name]; exists {
			continue
		}
		p.index[name] = len(p.columns)
		p.columns = append(p.columns, col)
	}
	return p, nil
}

// CommonColumns returns the names present in both datasets, in a's order
func CommonColumns(a, b *Dataset) []string {
	common := make([]string, 0, len(a.columns))
	for _, c := range a.columns {
		if _, ok := b.index[c.Name]; ok {
			common = append(common, c.Name)
		}
	}
	return common
}
