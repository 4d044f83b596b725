package table

import (
	"fmt"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
)

const (
	leftSuffix  = "_x"
	rightSuffix = "_y"
)

// JoinBytes parses both blobs according to their declared formats and joins
// them. It is the whole engine contract in one call.
func JoinBytes(a []byte, fa entity.Format, b []byte, fb entity.Format, spec entity.JoinSpec) (*Table, error) {
	left, err := Parse(a, fa)
	if err != nil {
		return nil, fmt.Errorf("left table: %w", err)
	}
	right, err := Parse(b, fb)
	if err != nil {
		return nil, fmt.Errorf("right table: %w", err)
	}
	return Join(left, right, spec)
}

// Join computes the relational join of left and right on spec.Column.
//
// Both tables' column names are normalized before matching. Duplicate keys
// produce every pairing of matching rows. The result starts with the join
// column, followed by left's remaining columns and then right's; a name
// present on both sides gets "_x" on the left copy and "_y" on the right.
// A suffixed name that collides with another result column is a schema
// mismatch. Unmatched cells are Missing.
//
// Row order: inner and left follow left's row order, right follows right's,
// and outer is left-driven followed by right's unmatched rows in their order.
func Join(left, right *Table, spec entity.JoinSpec) (*Table, error) {
	switch spec.Type {
	case entity.JoinInner, entity.JoinLeft, entity.JoinRight, entity.JoinOuter:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedJoin, spec.Type)
	}

	key := NormalizeColumn(spec.Column)
	if key == "" {
		return nil, fmt.Errorf("%w: join column is empty", ErrSchemaMismatch)
	}

	lcols, err := normalized(left, "left")
	if err != nil {
		return nil, err
	}
	rcols, err := normalized(right, "right")
	if err != nil {
		return nil, err
	}

	lk := indexOf(lcols, key)
	if lk < 0 {
		return nil, fmt.Errorf("%w: column %q not found in left table", ErrSchemaMismatch, key)
	}
	rk := indexOf(rcols, key)
	if rk < 0 {
		return nil, fmt.Errorf("%w: column %q not found in right table", ErrSchemaMismatch, key)
	}

	p, err := newPlan(lcols, rcols, lk, rk)
	if err != nil {
		return nil, err
	}

	out := &Table{Columns: p.columns}
	emit := func(lrow, rrow []Value) {
		out.Rows = append(out.Rows, p.row(lrow, rrow))
	}

	if spec.Type == entity.JoinRight {
		index := buildIndex(left.Rows, lk, p.textual)
		for _, rrow := range right.Rows {
			matches := lookup(index, rrow[rk], p.textual)
			for _, li := range matches {
				emit(left.Rows[li], rrow)
			}
			if len(matches) == 0 {
				emit(nil, rrow)
			}
		}
		return out, nil
	}

	index := buildIndex(right.Rows, rk, p.textual)
	matched := make([]bool, len(right.Rows))
	for _, lrow := range left.Rows {
		matches := lookup(index, lrow[lk], p.textual)
		for _, ri := range matches {
			matched[ri] = true
			emit(lrow, right.Rows[ri])
		}
		if len(matches) == 0 && spec.Type != entity.JoinInner {
			emit(lrow, nil)
		}
	}

	if spec.Type == entity.JoinOuter {
		for ri, rrow := range right.Rows {
			if !matched[ri] {
				emit(nil, rrow)
			}
		}
	}

	return out, nil
}

// plan maps input cells to output positions.
type plan struct {
	columns []Column
	lk, rk  int
	keyKind Kind
	textual bool
	lrest   []int
	rrest   []int
}

func newPlan(lcols, rcols []Column, lk, rk int) (*plan, error) {
	lt, rt := lcols[lk].Type, rcols[rk].Type
	p := &plan{
		lk:      lk,
		rk:      rk,
		keyKind: unify(lt, rt),
		// keys of unrelated kinds are compared by their text
		textual: lt != rt && !(lt.numeric() && rt.numeric()),
	}

	rnames := make(map[string]struct{}, len(rcols))
	for i, c := range rcols {
		if i != rk {
			rnames[c.Name] = struct{}{}
		}
	}
	lnames := make(map[string]struct{}, len(lcols))
	for i, c := range lcols {
		if i != lk {
			lnames[c.Name] = struct{}{}
		}
	}

	p.columns = append(p.columns, Column{Name: lcols[lk].Name, Type: p.keyKind})
	for i, c := range lcols {
		if i == lk {
			continue
		}
		if _, clash := rnames[c.Name]; clash {
			c.Name += leftSuffix
		}
		p.columns = append(p.columns, c)
		p.lrest = append(p.lrest, i)
	}
	for i, c := range rcols {
		if i == rk {
			continue
		}
		if _, clash := lnames[c.Name]; clash {
			c.Name += rightSuffix
		}
		p.columns = append(p.columns, c)
		p.rrest = append(p.rrest, i)
	}

	// a suffixed name may already be taken by another column
	seen := make(map[string]int, len(p.columns))
	for i, c := range p.columns {
		if prev, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: result column %q appears twice (positions %d and %d)",
				ErrSchemaMismatch, c.Name, prev+1, i+1)
		}
		seen[c.Name] = i
	}

	return p, nil
}

// row assembles one output row. Either side may be nil for an unmatched row.
func (p *plan) row(lrow, rrow []Value) []Value {
	out := make([]Value, 0, len(p.columns))

	if lrow != nil {
		out = append(out, lrow[p.lk].coerce(p.keyKind))
	} else {
		out = append(out, rrow[p.rk].coerce(p.keyKind))
	}

	for _, i := range p.lrest {
		if lrow == nil {
			out = append(out, Missing())
			continue
		}
		out = append(out, lrow[i])
	}
	for _, i := range p.rrest {
		if rrow == nil {
			out = append(out, Missing())
			continue
		}
		out = append(out, rrow[i])
	}

	return out
}

func indexOf(cols []Column, name string) int {
	for i, c := range cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func buildIndex(rows [][]Value, col int, textual bool) map[string][]int {
	index := make(map[string][]int, len(rows))
	for i, row := range rows {
		k, ok := row[col].key(textual)
		if !ok {
			continue
		}
		index[k] = append(index[k], i)
	}
	return index
}

func lookup(index map[string][]int, v Value, textual bool) []int {
	k, ok := v.key(textual)
	if !ok {
		return nil
	}
	return index[k]
}
