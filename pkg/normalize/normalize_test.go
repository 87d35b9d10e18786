package normalize

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   rune
		wantOK bool
	}{
		{"pipe beats comma", "a|b,c", '|', true},
		{"comma beats space", "a,b c", ',', true},
		{"space", "a b", ' ', true},
		{"empty", "", 0, false},
		{"no delimiter", "abc", 0, false},
		{"skips blank lines", "\n\n\na,b\nc|d", ',', true},
		{"crlf", "\r\na|b\r\n", '|', true},
		{"only blank lines", "\n\n", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, _ := SniffDelimiter(strings.NewReader(tt.input))
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("SniffDelimiter(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"/d/core.csv":        "/d/core.parquet",
		"/d/22eoextract.dat": "/d/22eoextract.parquet",
		"/d/noext":           "/d/noext.parquet",
		"/d/x.parquet":       "/d/x.parquet",
	}
	for in, want := range tests {
		if got := CanonicalPath(in); got != want {
			t.Errorf("CanonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNormalizeCSVIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "data.csv")
	writeFile(t, raw, "EIN,NAME,AMT\n1,Alpha,10\n2,Beta,x\n")

	n := New(log.New(io.Discard))
	out, err := n.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if out != filepath.Join(dir, "data.parquet") {
		t.Fatalf("Normalize() = %q", out)
	}

	tbl, err := tableio.ReadParquet(out)
	if err != nil {
		t.Fatal(err)
	}
	ein, _ := tbl.Column("EIN")
	amt, _ := tbl.Column("AMT")
	if ein.Kind() != table.KindNumber {
		t.Errorf("EIN kind = %v, want number", ein.Kind())
	}
	if amt.Kind() != table.KindText {
		t.Errorf("AMT kind = %v, want text", amt.Kind())
	}

	// A changed raw file is ignored while the artifact exists.
	writeFile(t, raw, "EIN\n9\n")
	again, err := n.Normalize(context.Background(), raw)
	if err != nil || again != out {
		t.Fatalf("second Normalize() = %q, %v", again, err)
	}
	tbl, _ = tableio.ReadParquet(out)
	if tbl.Len() != 2 {
		t.Errorf("artifact was rewritten: %d rows", tbl.Len())
	}

	if err := n.Invalidate(raw); err != nil {
		t.Fatal(err)
	}
	if _, err := n.Normalize(context.Background(), raw); err != nil {
		t.Fatal(err)
	}
	tbl, _ = tableio.ReadParquet(out)
	if tbl.Len() != 1 {
		t.Errorf("after Invalidate, rows = %d, want 1", tbl.Len())
	}
}

func TestNormalizeUnsupportedPassesThrough(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "notes.txt")
	writeFile(t, raw, "a|b\n")

	var buf bytes.Buffer
	n := New(log.New(&buf))
	out, err := n.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if out != raw {
		t.Errorf("Normalize() = %q, want input path", out)
	}
	if !strings.Contains(buf.String(), "unsupported file type") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestNormalizeEmptyFileKeepsRawPath(t *testing.T) {
	for _, name := range []string{"empty.dat", "empty.csv"} {
		t.Run(name, func(t *testing.T) {
			raw := filepath.Join(t.TempDir(), name)
			writeFile(t, raw, "")

			var buf bytes.Buffer
			n := New(log.New(&buf))
			out, err := n.Normalize(context.Background(), raw)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if out != raw {
				t.Errorf("Normalize() = %q, want %q", out, raw)
			}
			if _, err := os.Stat(CanonicalPath(raw)); !os.IsNotExist(err) {
				t.Error("no artifact should be written for an empty file")
			}
			if !strings.Contains(buf.String(), "no columns found") {
				t.Errorf("expected warning, got %q", buf.String())
			}
		})
	}
}

func TestNormalizeDATSniffsDelimiter(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "eo.dat")
	writeFile(t, raw, "\nEIN|NAME|CITY\n1|Alpha, Inc|Town A\n")

	n := New(log.New(io.Discard))
	out, err := n.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := tableio.ReadParquet(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Columns(); !reflect.DeepEqual(got, []string{"EIN", "NAME", "CITY"}) {
		t.Errorf("Columns() = %v", got)
	}
	if v := tbl.Value(0, "NAME"); v != "Alpha, Inc" {
		t.Errorf("NAME = %#v", v)
	}
}

func TestNormalizeXLSXCoercesMixedColumns(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "ez.xlsx")
	f := excelize.NewFile()
	for cell, v := range map[string]any{
		"A1": "EIN", "B1": "CODE",
		"A2": 1, "B2": 5,
		"A3": 2, "B3": "N/A",
	} {
		_ = f.SetCellValue("Sheet1", cell, v)
	}
	if err := f.SaveAs(raw); err != nil {
		t.Fatal(err)
	}
	f.Close()

	n := New(log.New(io.Discard))
	out, err := n.Normalize(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := tableio.ReadParquet(out)
	if err != nil {
		t.Fatal(err)
	}
	code, _ := tbl.Column("CODE")
	if !reflect.DeepEqual(code.Values, []any{"5", "N/A"}) {
		t.Errorf("CODE = %v", code.Values)
	}
	ein, _ := tbl.Column("EIN")
	if ein.Kind() != table.KindNumber {
		t.Errorf("EIN kind = %v", ein.Kind())
	}
}

func TestRegisterOverridesHandler(t *testing.T) {
	n := New(nil)
	called := false
	n.Register(".TXT", Handler{Format: "txt", Read: func(string, *log.Logger) (*table.Table, error) {
		called = true
		return table.MustFromColumns("t", table.Col("A", "x")), nil
	}})

	h, ok := n.Select(".txt")
	if !ok || h.Format != "txt" {
		t.Fatalf("Select(.txt) = %v, %v", h.Format, ok)
	}

	raw := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, raw, "")
	if _, err := n.Normalize(context.Background(), raw); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("registered handler was not used")
	}
}
