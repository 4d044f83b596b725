package table

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeColumn(t *testing.T) {
	cases := map[string]string{
		"Customer ID ":     "customer_id",
		"customer_id":      "customer_id",
		"  Order\tTotal  ": "order_total",
		"A   B  C":         "a_b_c",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeColumn(in); got != want {
			t.Fatalf("NormalizeColumn(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeColumnIdempotent(t *testing.T) {
	for _, in := range []string{"Customer ID ", " x  y ", "ÄBC Def", "already_normal", "\tTabbed\nName"} {
		once := NormalizeColumn(in)
		if twice := NormalizeColumn(once); twice != once {
			t.Fatalf("NormalizeColumn not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizedRejectsCollisions(t *testing.T) {
	tbl := &Table{Columns: []Column{{Name: "Name", Type: KindString}, {Name: " name ", Type: KindString}}}
	_, err := normalized(tbl, "left")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestHeadIsBoundedAndOrdered(t *testing.T) {
	tbl := &Table{
		Columns: []Column{{Name: "z", Type: KindInt}, {Name: "a", Type: KindString}},
	}
	for i := 0; i < 8; i++ {
		tbl.Rows = append(tbl.Rows, []Value{Int(int64(i)), String("v")})
	}

	head := tbl.Head(5)
	if len(head) != 5 {
		t.Fatalf("expected 5 records, got %d", len(head))
	}

	encoded, err := json.Marshal(head[0])
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	if string(encoded) != `{"z":0,"a":"v"}` {
		t.Fatalf("unexpected record json: %s", encoded)
	}

	if got := len(tbl.Head(100)); got != 8 {
		t.Fatalf("expected head to cap at row count, got %d", got)
	}
}

func TestValueText(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Missing(), ""},
		{String("x"), "x"},
		{Int(-3), "-3"},
		{Float(2.5), "2.5"},
		{Float(3), "3"},
		{Bool(true), "true"},
	}
	for _, tc := range cases {
		if got := tc.v.Text(); got != tc.want {
			t.Fatalf("Text(%v) = %q, want %q", tc.v.Any(), got, tc.want)
		}
	}
}
