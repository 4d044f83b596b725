package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
)

// payloadVersion is bumped whenever the encoded layout changes.
const payloadVersion = 1

type payload struct {
	Version  int                 `json:"version"`
	Columns  []Column            `json:"columns"`
	Rows     [][]json.RawMessage `json:"rows"`
	RowCount int                 `json:"row_count"`
}

// Encode serializes t as a self-describing JSON document: the schema (column
// names and kinds), the cells, and the row count.
func Encode(t *Table) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	rows := make([][]json.RawMessage, len(t.Rows))
	for r, row := range t.Rows {
		rows[r] = make([]json.RawMessage, len(row))
		for c, v := range row {
			raw, err := v.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("encode row %d column %q: %w", r, t.Columns[c].Name, err)
			}
			rows[r][c] = raw
		}
	}

	return json.Marshal(payload{
		Version:  payloadVersion,
		Columns:  t.Columns,
		Rows:     rows,
		RowCount: len(t.Rows),
	})
}

// Decode is the inverse of Encode. It rejects documents whose shape does not
// match their own schema with ErrCorruptPayload.
func Decode(data []byte) (*Table, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrCorruptPayload, p.Version, payloadVersion)
	}
	if len(p.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrCorruptPayload)
	}
	for c, col := range p.Columns {
		if col.Type == KindMissing {
			return nil, fmt.Errorf("%w: column %d has kind %s", ErrCorruptPayload, c, col.Type)
		}
	}
	if p.RowCount != len(p.Rows) {
		return nil, fmt.Errorf("%w: row_count %d, got %d rows", ErrCorruptPayload, p.RowCount, len(p.Rows))
	}

	t := &Table{Columns: p.Columns, Rows: make([][]Value, len(p.Rows))}
	for r, raw := range p.Rows {
		if len(raw) != len(p.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrCorruptPayload, r, len(raw), len(p.Columns))
		}
		row := make([]Value, len(raw))
		for c, cell := range raw {
			v, err := decodeCell(cell, p.Columns[c].Type)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrCorruptPayload, r, p.Columns[c].Name, err)
			}
			row[c] = v
		}
		t.Rows[r] = row
	}

	return t, nil
}

func decodeCell(raw json.RawMessage, kind Kind) (Value, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Missing(), nil
	}

	switch kind {
	case KindString:
		var s string
		err := json.Unmarshal(raw, &s)
		return String(s), err
	case KindInt:
		var i int64
		err := json.Unmarshal(raw, &i)
		return Int(i), err
	case KindFloat:
		var f float64
		err := json.Unmarshal(raw, &f)
		return Float(f), err
	case KindBool:
		var b bool
		err := json.Unmarshal(raw, &b)
		return Bool(b), err
	default:
		return Value{}, fmt.Errorf("column kind %s cannot hold values", kind)
	}
}

func validate(t *Table) error {
	if t == nil || len(t.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrCorruptPayload)
	}
	for c, col := range t.Columns {
		if col.Type == KindMissing || col.Type > KindBool {
			return fmt.Errorf("%w: column %d has kind %s", ErrCorruptPayload, c, col.Type)
		}
	}
	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrCorruptPayload, r, len(row), len(t.Columns))
		}
		for c, v := range row {
			if !v.IsMissing() && v.Kind() != t.Columns[c].Type {
				return fmt.Errorf("%w: row %d column %q holds %s, want %s",
					ErrCorruptPayload, r, t.Columns[c].Name, v.Kind(), t.Columns[c].Type)
			}
		}
	}
	return nil
}

// CSV renders t with a header row. Missing cells are written as empty fields.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Names()); err != nil {
		return nil, err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = v.Text()
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
