package table

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
)

func mustParseCSV(t *testing.T, data string) *Table {
	t.Helper()
	tbl, err := Parse([]byte(data), entity.FormatCSV)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return tbl
}

func customersAndOrders(t *testing.T) (*Table, *Table) {
	t.Helper()
	a := mustParseCSV(t, "id,name\n1,alice\n2,bob\n3,carol\n")
	b := mustParseCSV(t, "id,total\n2,20\n3,30\n4,40\n")
	return a, b
}

func columnInts(t *testing.T, tbl *Table, name string) []int64 {
	t.Helper()
	idx := tbl.ColumnIndex(name)
	if idx < 0 {
		t.Fatalf("column %q not in %v", name, tbl.Names())
	}
	out := make([]int64, 0, tbl.NumRows())
	for _, row := range tbl.Rows {
		v, ok := row[idx].Any().(int64)
		if !ok {
			t.Fatalf("column %q holds %v, want int", name, row[idx].Any())
		}
		out = append(out, v)
	}
	return out
}

func TestJoinInner(t *testing.T) {
	a, b := customersAndOrders(t)

	out, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinInner})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}

	if got := columnInts(t, out, "id"); !reflect.DeepEqual(got, []int64{2, 3}) {
		t.Fatalf("ids = %v, want [2 3]", got)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"id", "name", "total"}) {
		t.Fatalf("columns = %v", got)
	}
}

func TestJoinLeftFillsMissing(t *testing.T) {
	a, b := customersAndOrders(t)

	out, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinLeft})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}

	if got := columnInts(t, out, "id"); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("ids = %v, want [1 2 3]", got)
	}
	total := out.ColumnIndex("total")
	if !out.Rows[0][total].IsMissing() {
		t.Fatalf("expected id=1 total to be missing, got %v", out.Rows[0][total].Any())
	}
	if out.Rows[1][total].Any() != int64(20) {
		t.Fatalf("expected id=2 total 20, got %v", out.Rows[1][total].Any())
	}
}

func TestJoinRight(t *testing.T) {
	a, b := customersAndOrders(t)

	out, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinRight})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}

	if got := columnInts(t, out, "id"); !reflect.DeepEqual(got, []int64{2, 3, 4}) {
		t.Fatalf("ids = %v, want [2 3 4]", got)
	}
	name := out.ColumnIndex("name")
	if !out.Rows[2][name].IsMissing() {
		t.Fatalf("expected id=4 name to be missing")
	}
}

func TestJoinOuter(t *testing.T) {
	a, b := customersAndOrders(t)

	out, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinOuter})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}

	if got := columnInts(t, out, "id"); !reflect.DeepEqual(got, []int64{1, 2, 3, 4}) {
		t.Fatalf("ids = %v, want [1 2 3 4]", got)
	}
	name, total := out.ColumnIndex("name"), out.ColumnIndex("total")
	if !out.Rows[0][total].IsMissing() {
		t.Fatalf("expected id=1 total missing")
	}
	if !out.Rows[3][name].IsMissing() {
		t.Fatalf("expected id=4 name missing")
	}
}

func TestJoinNormalizesRequestedColumn(t *testing.T) {
	a := mustParseCSV(t, "Customer_ID,name\n1,alice\n2,bob\n")
	b := mustParseCSV(t, "customer_id,city\n2,Bandung\n")

	out, err := Join(a, b, entity.JoinSpec{Column: "Customer ID ", Type: entity.JoinInner})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"customer_id", "name", "city"}) {
		t.Fatalf("columns = %v", got)
	}
	if out.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", out.NumRows())
	}
}

func TestJoinDuplicateKeysAreCartesian(t *testing.T) {
	a := mustParseCSV(t, "k,l\n1,a\n1,b\n2,c\n")
	b := mustParseCSV(t, "k,r\n1,x\n1,y\n1,z\n")

	out, err := Join(a, b, entity.JoinSpec{Column: "k", Type: entity.JoinInner})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if out.NumRows() != 6 {
		t.Fatalf("rows = %d, want 6", out.NumRows())
	}

	var pairs []string
	l, r := out.ColumnIndex("l"), out.ColumnIndex("r")
	for _, row := range out.Rows {
		pairs = append(pairs, row[l].Text()+row[r].Text())
	}
	want := []string{"ax", "ay", "az", "bx", "by", "bz"}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("pairs = %v, want %v", pairs, want)
	}
}

func TestJoinSuffixesSharedColumns(t *testing.T) {
	a := mustParseCSV(t, "id,name,score\n1,alice,5\n")
	b := mustParseCSV(t, "id,Name,rank\n1,ALICE,2\n")

	out, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinInner})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	want := []string{"id", "name_x", "score", "name_y", "rank"}
	if got := out.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
}

func TestJoinRejectsSuffixCollision(t *testing.T) {
	a := mustParseCSV(t, "id,a,a_x\n1,l1,lx1\n")
	b := mustParseCSV(t, "id,a\n1,r1\n")

	_, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinInner})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Join() err = %v, want ErrSchemaMismatch", err)
	}
	if !strings.Contains(err.Error(), `"a_x"`) {
		t.Fatalf("Join() err = %v, want the colliding column named", err)
	}

	// the right suffix collides the same way
	c := mustParseCSV(t, "id,a\n1,l1\n")
	d := mustParseCSV(t, "id,a,a_y\n1,r1,ry1\n")
	if _, err := Join(c, d, entity.JoinSpec{Column: "id", Type: entity.JoinOuter}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Join() err = %v, want ErrSchemaMismatch", err)
	}
}

func TestJoinMatchesIntAndFloatKeys(t *testing.T) {
	a := mustParseCSV(t, "id,v\n1,a\n2,b\n")
	b := mustParseCSV(t, "id,w\n1.0,x\n2.5,y\n")

	out, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinInner})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if out.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", out.NumRows())
	}
	if out.Columns[0].Type != KindFloat {
		t.Fatalf("join column kind = %s, want float", out.Columns[0].Type)
	}
	if err := validate(out); err != nil {
		t.Fatalf("joined table invalid: %v", err)
	}
}

func TestJoinMixedKindsCompareAsText(t *testing.T) {
	a := mustParseCSV(t, "code,v\n7,a\nX1,b\n")
	b := mustParseCSV(t, "code,w\n7,x\n8,y\n")

	out, err := Join(a, b, entity.JoinSpec{Column: "code", Type: entity.JoinOuter})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if out.Columns[0].Type != KindString {
		t.Fatalf("join column kind = %s, want string", out.Columns[0].Type)
	}
	if out.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", out.NumRows())
	}
	if err := validate(out); err != nil {
		t.Fatalf("joined table invalid: %v", err)
	}
}

func TestJoinMissingKeysNeverMatch(t *testing.T) {
	a := mustParseCSV(t, "id,v\n,a\n1,b\n")
	b := mustParseCSV(t, "id,w\n,x\n1,y\n")

	inner, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinInner})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if inner.NumRows() != 1 {
		t.Fatalf("inner rows = %d, want 1", inner.NumRows())
	}

	outer, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinOuter})
	if err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if outer.NumRows() != 3 {
		t.Fatalf("outer rows = %d, want 3", outer.NumRows())
	}
}

func TestJoinErrors(t *testing.T) {
	a, b := customersAndOrders(t)

	if _, err := Join(a, b, entity.JoinSpec{Column: "customer_id", Type: entity.JoinInner}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("missing column err = %v, want ErrSchemaMismatch", err)
	}
	if _, err := Join(a, b, entity.JoinSpec{Column: "  ", Type: entity.JoinInner}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("empty column err = %v, want ErrSchemaMismatch", err)
	}
	if _, err := Join(a, b, entity.JoinSpec{Column: "id", Type: entity.JoinType("cross")}); !errors.Is(err, ErrUnsupportedJoin) {
		t.Fatalf("bad type err = %v, want ErrUnsupportedJoin", err)
	}

	onlyLeft := mustParseCSV(t, "name,total\nx,1\n")
	if _, err := Join(onlyLeft, b, entity.JoinSpec{Column: "id", Type: entity.JoinInner}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("left missing column err = %v, want ErrSchemaMismatch", err)
	}
}

func TestJoinDoesNotMutateInputs(t *testing.T) {
	a := mustParseCSV(t, "Customer ID,name\n1,alice\n")
	b := mustParseCSV(t, "customer_id,city\n1,Depok\n")

	if _, err := Join(a, b, entity.JoinSpec{Column: "customer_id", Type: entity.JoinInner}); err != nil {
		t.Fatalf("Join() err = %v", err)
	}
	if a.Columns[0].Name != "Customer ID" {
		t.Fatalf("left header mutated to %q", a.Columns[0].Name)
	}
}

func TestJoinRowCountProperties(t *testing.T) {
	fixtures := []struct {
		name string
		a, b string
	}{
		{"disjoint", "k,a\n1,x\n2,y\n", "k,b\n3,z\n"},
		{"overlap", "k,a\n1,x\n2,y\n3,z\n", "k,b\n2,p\n3,q\n4,r\n5,s\n"},
		{"identical", "k,a\n1,x\n2,y\n", "k,b\n1,p\n2,q\n"},
		{"duplicates", "k,a\n1,x\n1,y\n2,z\n", "k,b\n1,p\n1,q\n3,r\n"},
	}

	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			a, b := mustParseCSV(t, fx.a), mustParseCSV(t, fx.b)
			count := func(jt entity.JoinType) int {
				out, err := Join(a, b, entity.JoinSpec{Column: "k", Type: jt})
				if err != nil {
					t.Fatalf("Join(%s) err = %v", jt, err)
				}
				return out.NumRows()
			}

			inner, left, right, outer := count(entity.JoinInner), count(entity.JoinLeft), count(entity.JoinRight), count(entity.JoinOuter)
			if inner > outer {
				t.Fatalf("inner %d > outer %d", inner, outer)
			}
			if left > outer || right > outer {
				t.Fatalf("left %d / right %d exceed outer %d", left, right, outer)
			}
			if fx.name != "duplicates" {
				if left != a.NumRows() {
					t.Fatalf("left rows = %d, want %d", left, a.NumRows())
				}
				if right != b.NumRows() {
					t.Fatalf("right rows = %d, want %d", right, b.NumRows())
				}
			}
		})
	}
}

func TestJoinBytesReportsSide(t *testing.T) {
	_, err := JoinBytes([]byte("id\n1\n"), entity.FormatCSV, []byte("not,csv\n\"broken"), entity.FormatCSV,
		entity.JoinSpec{Column: "id", Type: entity.JoinInner})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("JoinBytes() err = %v, want ErrParse", err)
	}
}
