package athena

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Column describes one result column.
type Column struct {
	Name string
	Type string
}

// Numeric reports whether the column holds an integer or floating point type.
func (c Column) Numeric() bool {
	switch c.Type {
	case "double", "bigint", "integer":
		return true
	}
	return false
}

// ResultSet is a decoded query result. Values are read by column name.
type ResultSet struct {
	Columns []Column
	Rows    []Row
	index   map[string]int
}

// Row is one result row. A nil value is SQL NULL.
type Row struct {
	set    *ResultSet
	values []*string
}

// NewResultSet builds a result set. Used by the client and by tests that
// fake query output.
func NewResultSet(columns []Column, rows [][]*string) *ResultSet {
	rs := &ResultSet{
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		rs.index[strings.ToLower(c.Name)] = i
	}
	rs.Rows = make([]Row, 0, len(rows))
	for _, values := range rows {
		rs.Rows = append(rs.Rows, Row{set: rs, values: values})
	}
	return rs
}

// Require returns an error naming every column that is absent from the
// result. Decoders call it once before reading rows.
func (rs *ResultSet) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := rs.index[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("athena: result is missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}

func (r Row) lookup(column string) (*string, bool) {
	i, ok := r.set.index[strings.ToLower(column)]
	if !ok || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// Values returns the raw row values in column order.
func (r Row) Values() []*string {
	return r.values
}

// String returns the column value, "" for NULL or unknown columns.
func (r Row) String(column string) string {
	v, _ := r.lookup(column)
	if v == nil {
		return ""
	}
	return *v
}

// Int parses the column as an integer.
func (r Row) Int(column string) (int, error) {
	s := r.String(column)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "athena: column %s", column)
	}
	return n, nil
}

// Float parses the column as a float.
func (r Row) Float(column string) (float64, error) {
	s := r.String(column)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "athena: column %s", column)
	}
	return f, nil
}
