package table

import (
	"reflect"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   Verdict
	}{
		{"numbers then text", []any{1.0, 2.0, "x"}, Mixed},
		{"all numbers", []any{1.0, 2.0, 3.0}, Uniform},
		{"empty", []any{}, Uniform},
		{"all null", []any{nil, nil}, Uniform},
		{"nulls ignored", []any{"a", nil, "b"}, Uniform},
		{"date and text", []any{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "x"}, Mixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.values); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		values []any
		want   Kind
	}{
		{[]any{1.0, nil, 2.0}, KindNumber},
		{[]any{"a", "b"}, KindText},
		{[]any{1.0, "b"}, KindText},
		{[]any{nil}, KindText},
		{[]any{true, false}, KindOther},
	}
	for _, tt := range tests {
		if got := KindOf(tt.values); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	s := "x"
	tests := []struct {
		in   any
		want any
	}{
		{int64(7), 7.0},
		{int32(-3), -3.0},
		{float32(1.5), 1.5},
		{[]byte("abc"), "abc"},
		{&s, "x"},
		{(*string)(nil), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%#v) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestAddColumnLengthMismatch(t *testing.T) {
	tbl := MustFromColumns("t", Col("A", 1.0, 2.0))
	if err := tbl.AddColumn("B", []any{1.0}); err == nil {
		t.Fatal("expected error for short column")
	}
	if err := tbl.AddColumn("A", []any{3.0, 4.0}); err != nil {
		t.Fatalf("replace column: %v", err)
	}
	if tbl.Width() != 1 || tbl.Value(0, "A") != 3.0 {
		t.Errorf("replace did not take effect: %v", tbl.Row(0))
	}
}

func TestRenameKeepsIndex(t *testing.T) {
	tbl := MustFromColumns("t", Col("ein", 1.0), Col("name", "a"))
	if err := tbl.SetIndex("ein"); err != nil {
		t.Fatal(err)
	}
	if !tbl.Rename("ein", "EIN") {
		t.Fatal("Rename returned false")
	}
	if tbl.Index() != "EIN" {
		t.Errorf("Index() = %q, want EIN", tbl.Index())
	}
	if tbl.Rename("name", "EIN") {
		t.Error("Rename onto an existing column should fail")
	}
}

func TestUpperSkipsIndex(t *testing.T) {
	tbl := MustFromColumns("t", Col("ein", 1.0), Col("name", "a"), Col("city", "b"))
	tbl.Upper("ein")
	want := []string{"ein", "NAME", "CITY"}
	if got := tbl.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestSelectKeepsIndexFirst(t *testing.T) {
	tbl := MustFromColumns("t", Col("A", 1.0), Col("EIN", 9.0), Col("B", "x"))
	_ = tbl.SetIndex("EIN")

	got, err := tbl.Select([]string{"B", "A"})
	if err != nil {
		t.Fatal(err)
	}
	if cols := got.Columns(); !reflect.DeepEqual(cols, []string{"EIN", "B", "A"}) {
		t.Errorf("Columns() = %v", cols)
	}
	if got.Index() != "EIN" {
		t.Errorf("Index() = %q", got.Index())
	}

	if _, err := tbl.Select([]string{"C"}); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := MustFromColumns("t", Col("A", 1.0, 2.0), Col("B", "x", "y"))
	cp := tbl.Clone()
	c, _ := cp.Column("A")
	c.Values[0] = 99.0
	if tbl.Value(0, "A") != 1.0 {
		t.Error("Clone shares column storage")
	}
	if !reflect.DeepEqual(cp.Columns(), tbl.Columns()) {
		t.Errorf("Clone reordered columns: %v", cp.Columns())
	}
}

func TestFilter(t *testing.T) {
	tbl := MustFromColumns("t", Col("EIN", 1.0, 2.0, 3.0), Col("D", "a", nil, "c"))
	_ = tbl.SetIndex("EIN")
	out := tbl.Filter(func(i int) bool { return tbl.Value(i, "D") != nil })
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", out.Len())
	}
	if out.Index() != "EIN" || out.Key(1) != "3" {
		t.Errorf("Key(1) = %q, index %q", out.Key(1), out.Index())
	}
}

func TestConcatUnion(t *testing.T) {
	a := MustFromColumns("a", Col("EIN", 1.0), Col("X", "x"))
	b := MustFromColumns("b", Col("EIN", 2.0), Col("Y", "y"))
	out := Concat("ab", a, b)

	if out.Len() != 2 {
		t.Fatalf("Len() = %d", out.Len())
	}
	if cols := out.Columns(); !reflect.DeepEqual(cols, []string{"EIN", "X", "Y"}) {
		t.Errorf("Columns() = %v", cols)
	}
	if out.Value(1, "X") != nil || out.Value(0, "Y") != nil {
		t.Error("missing cells should be nil")
	}
}

func TestDuplicateKeys(t *testing.T) {
	tbl := MustFromColumns("t", Col("EIN", 1.0, "1", 2.0, 3.0, 3.0))
	_ = tbl.SetIndex("EIN")
	if got := tbl.DuplicateKeys(); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("DuplicateKeys() = %v", got)
	}
	if row, ok := tbl.Lookup("2"); !ok || row != 2 {
		t.Errorf("Lookup(2) = %d, %v", row, ok)
	}
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{123456789.0, "123456789"},
		{1.5, "1.5"},
		{" 0012 ", "0012"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FormatKey(tt.in); got != tt.want {
			t.Errorf("FormatKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReconcile(t *testing.T) {
	ref := MustFromColumns("ref", Col("A", "1", "2"), Col("B", 1.0, 2.0))
	tbl := MustFromColumns("t", Col("A", 1.0, 2.0), Col("B", "1", "x"), Col("C", 5.0, nil))

	tbl.Reconcile(ref, "")

	a, _ := tbl.Column("A")
	b, _ := tbl.Column("B")
	c, _ := tbl.Column("C")
	if !reflect.DeepEqual(a.Values, []any{"1", "2"}) {
		t.Errorf("A = %v", a.Values)
	}
	if !reflect.DeepEqual(b.Values, []any{1.0, 0.0}) {
		t.Errorf("B = %v", b.Values)
	}
	if !reflect.DeepEqual(c.Values, []any{"5", ""}) {
		t.Errorf("C = %v", c.Values)
	}
}

func TestReconcileSkipsIndex(t *testing.T) {
	ref := MustFromColumns("ref", Col("EIN", "1"))
	tbl := MustFromColumns("t", Col("EIN", 1.0))
	tbl.Reconcile(ref, "EIN")
	if tbl.Value(0, "EIN") != 1.0 {
		t.Errorf("index column was coerced: %#v", tbl.Value(0, "EIN"))
	}
}

func TestInferNumbersAndFillText(t *testing.T) {
	tbl := MustFromColumns("t", Col("N", "1", nil, "2.5"), Col("S", "1", "x", nil))
	tbl.InferNumbers()
	tbl.FillText()

	n, _ := tbl.Column("N")
	s, _ := tbl.Column("S")
	if !reflect.DeepEqual(n.Values, []any{1.0, nil, 2.5}) {
		t.Errorf("N = %v", n.Values)
	}
	if !reflect.DeepEqual(s.Values, []any{"1", "x", ""}) {
		t.Errorf("S = %v", s.Values)
	}
}

func TestCoerceNumber(t *testing.T) {
	tbl := MustFromColumns("t", Col("N", "3", "bad", nil))
	tbl.CoerceNumber("N")
	n, _ := tbl.Column("N")
	if !reflect.DeepEqual(n.Values, []any{3.0, 0.0, 0.0}) {
		t.Errorf("N = %v", n.Values)
	}
}
