// Package tableio reads and writes [table.Table] values in the file formats
// the filing extracts ship in: delimited text, Excel workbooks, and the
// Parquet files used as canonical artifacts and warehouse cache entries.
//
// Readers return cells as strings (or float64 when numbers are inferred)
// with empty cells as nil. Delimited input that is not valid UTF-8 is
// decoded as Windows-1252.
package tableio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/matzehuels/nccs/pkg/table"
)

// DelimitedOptions controls how delimited text is parsed.
type DelimitedOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// Header takes column names from the first record.
	Header bool

	// Names supplies column names for headerless input. When UseCols is
	// set, Names pairs with it position by position.
	Names []string

	// UseCols keeps only these zero-based field positions.
	UseCols []int

	// Infer converts columns whose values all parse as numbers.
	Infer bool
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadDelimitedFile parses a delimited text file. The table is named after
// the file.
func ReadDelimitedFile(path string, opts DelimitedOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDelimited(f, filepath.Base(path), opts)
}

// ReadDelimited parses delimited text from r.
func ReadDelimited(r io.Reader, name string, opts DelimitedOptions) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data, err = DecodeText(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var names []string
	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if opts.Header && names == nil {
			names = rec
			continue
		}
		records = append(records, rec)
	}

	positions, names := columnLayout(names, records, opts)
	t := table.New(name)
	for i, pos := range positions {
		values := make([]any, len(records))
		for r, rec := range records {
			if pos < len(rec) {
				values[r] = table.ParseText(rec[pos])
			}
		}
		if err := t.AddColumn(names[i], values); err != nil {
			return nil, err
		}
	}
	if opts.Infer {
		t.InferNumbers()
	}
	return t, nil
}

// columnLayout decides which field positions become columns and what they
// are called.
func columnLayout(header []string, records [][]string, opts DelimitedOptions) ([]int, []string) {
	width := len(header)
	for _, rec := range records {
		width = max(width, len(rec))
	}

	var positions []int
	if len(opts.UseCols) > 0 {
		positions = opts.UseCols
	} else {
		for i := 0; i < width; i++ {
			positions = append(positions, i)
		}
	}

	names := make([]string, len(positions))
	for i, pos := range positions {
		switch {
		case len(opts.Names) > 0 && len(opts.UseCols) > 0 && i < len(opts.Names):
			names[i] = opts.Names[i]
		case len(opts.Names) > 0 && len(opts.UseCols) == 0 && pos < len(opts.Names):
			names[i] = opts.Names[pos]
		case pos < len(header):
			names[i] = header[pos]
		default:
			names[i] = strconv.Itoa(pos)
		}
	}
	return positions, uniqueNames(names)
}

// DecodeText strips a UTF-8 byte order mark and converts input that is not
// valid UTF-8 from Windows-1252.
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}

// WriteDelimitedFile writes t as delimited text with a header row. When
// the table has an index column it is written first.
func WriteDelimitedFile(path string, t *table.Table, comma rune) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDelimited(f, t, comma); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDelimited writes t to w. Missing values are written as empty fields.
func WriteDelimited(w io.Writer, t *table.Table, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}

	cols := indexFirst(t)
	if err := cw.Write(cols); err != nil {
		return err
	}
	rec := make([]string, len(cols))
	for i := 0; i < t.Len(); i++ {
		for j, name := range cols {
			rec[j] = table.ToText(t.Value(i, name))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func indexFirst(t *table.Table) []string {
	cols := t.Columns()
	idx := t.Index()
	if idx == "" {
		return cols
	}
	out := []string{idx}
	for _, c := range cols {
		if c != idx {
			out = append(out, c)
		}
	}
	return out
}

// uniqueNames fills blank names and suffixes repeats with ".1", ".2", ...
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		base := n
		for seen[n] > 0 {
			n = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[n]++
		out[i] = n
	}
	return out
}
