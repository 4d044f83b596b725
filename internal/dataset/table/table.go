package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Column struct {
	Name string `json:"name"`
	Type Kind   `json:"type"`
}

// Table holds rows of typed cells. Every row has exactly len(Columns) cells
// and every non-missing cell has the kind of its column.
type Table struct {
	Columns []Column
	Rows    [][]Value
}

func (t *Table) NumRows() int { return len(t.Rows) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the column called name, or -1.
func (t *Table) ColumnIndex(name string) int {
	return indexOf(t.Columns, name)
}

// Head returns up to n leading rows as records, for bounded previews.
func (t *Table) Head(n int) []Record {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}

	records := make([]Record, 0, n)
	for _, row := range t.Rows[:n] {
		rec := make(Record, len(t.Columns))
		for i, c := range t.Columns {
			rec[i] = Field{Name: c.Name, Value: row[i]}
		}
		records = append(records, rec)
	}
	return records
}

type Field struct {
	Name  string
	Value Value
}

// Record is one row keyed by column name. It encodes as a JSON object whose
// keys keep the column order.
type Record []Field

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value of the named field.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// NormalizeColumn lower-cases name, trims it, and joins the remaining words
// with a single underscore. It is idempotent.
func NormalizeColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// normalized returns a copy of t's columns with normalized names. Rows are
// shared with t.
func normalized(t *Table, side string) ([]Column, error) {
	cols := make([]Column, len(t.Columns))
	seen := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		name := NormalizeColumn(c.Name)
		if name == "" {
			name = "unnamed_" + strconv.Itoa(i)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s table columns %q and %q both normalize to %q",
				ErrSchemaMismatch, side, t.Columns[prev].Name, c.Name, name)
		}
		seen[name] = i
		cols[i] = Column{Name: name, Type: c.Type}
	}
	return cols, nil
}

// fromRaw builds a table from a header and string rows, inferring each
// column's kind from its non-empty cells.
func fromRaw(header []string, raw [][]string) (*Table, error) {
	for i, row := range raw {
		if len(row) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrParse, i+2, len(row), len(header))
		}
	}

	t := &Table{
		Columns: make([]Column, len(header)),
		Rows:    make([][]Value, len(raw)),
	}
	for r := range raw {
		t.Rows[r] = make([]Value, len(header))
	}

	cells := make([]string, len(raw))
	for c, name := range header {
		for r, row := range raw {
			cells[r] = ""
			if c < len(row) {
				cells[r] = strings.TrimSpace(row[c])
			}
		}

		kind := inferKind(cells)
		t.Columns[c] = Column{Name: strings.TrimSpace(name), Type: kind}
		for r, cell := range cells {
			t.Rows[r][c] = parseCell(cell, kind)
		}
	}

	return t, nil
}

func inferKind(cells []string) Kind {
	isInt, isFloat, isBool, seen := true, true, true, false
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			f, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				isFloat = false
			}
		}
		if isBool {
			if !strings.EqualFold(cell, "true") && !strings.EqualFold(cell, "false") {
				isBool = false
			}
		}
	}

	switch {
	case !seen:
		return KindString
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	default:
		return KindString
	}
}

// parseCell converts a trimmed cell to kind. inferKind has already checked
// that every non-empty cell converts.
func parseCell(cell string, kind Kind) Value {
	if cell == "" {
		return Missing()
	}
	switch kind {
	case KindInt:
		i, _ := strconv.ParseInt(cell, 10, 64)
		return Int(i)
	case KindFloat:
		f, _ := strconv.ParseFloat(cell, 64)
		return Float(f)
	case KindBool:
		return Bool(strings.EqualFold(cell, "true"))
	default:
		return String(cell)
	}
}
