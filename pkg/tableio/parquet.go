package tableio

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/matzehuels/nccs/pkg/table"
)

const parquetParallelism = 4

// columnsKey holds the JSON list of original column names in the file
// metadata. Schema tags cannot carry every name verbatim.
const columnsKey = "nccs.columns"

// tagComma stands in for a comma inside a schema tag name.
const tagComma = "\x1f"

// ErrNoColumns is returned when writing a table without columns.
var ErrNoColumns = errors.New("table has no columns")

// WriteParquet writes t to path as a Snappy-compressed Parquet file.
// Number columns become DOUBLE, boolean columns BOOLEAN and everything else
// UTF-8 text. Every column is optional so missing values survive. When the
// table has an index column it is written first.
func WriteParquet(path string, t *table.Table) (err error) {
	cols := indexFirst(t)
	if len(cols) == 0 {
		return ErrNoColumns
	}

	kinds := make([]parquetKind, len(cols))
	md := make([]string, len(cols))
	for i, name := range cols {
		c, _ := t.Column(name)
		kinds[i] = parquetKindOf(c.Values)
		md[i] = kinds[i].tag(name)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := fw.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	pw, err := writer.NewCSVWriter(md, fw, parquetParallelism)
	if err != nil {
		return fmt.Errorf("parquet schema for %s: %w", filepath.Base(path), err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	if names, err := json.Marshal(cols); err == nil {
		value := string(names)
		pw.Footer.KeyValueMetadata = append(pw.Footer.KeyValueMetadata, &parquet.KeyValue{Key: columnsKey, Value: &value})
	}

	for i := 0; i < t.Len(); i++ {
		// The writer buffers the slice itself until the row group flushes.
		rec := make([]any, len(cols))
		for j, name := range cols {
			rec[j] = kinds[j].value(t.Value(i, name))
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write %s row %d: %w", filepath.Base(path), i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadParquet reads every column of a Parquet file. The table is named
// after the file.
func ReadParquet(path string) (*table.Table, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	defer pr.ReadStop()

	rows := pr.GetNumRows()
	t := table.New(filepath.Base(path))
	var names []string
	var columns [][]any
	for i, inPath := range pr.SchemaHandler.ValueColumns {
		raw, _, _, err := pr.ReadColumnByIndex(int64(i), rows)
		if err != nil {
			return nil, fmt.Errorf("read %s column %d: %w", filepath.Base(path), i, err)
		}
		values := make([]any, rows)
		for r := range values {
			if r < len(raw) {
				values[r] = table.Normalize(raw[r])
			}
		}
		names = append(names, columnName(pr.SchemaHandler.InPathToExPath[inPath], inPath))
		columns = append(columns, values)
	}
	if stored := storedColumns(pr.Footer); len(stored) == len(names) {
		names = stored
	}
	for i, name := range uniqueNames(names) {
		if err := t.AddColumn(name, columns[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// columnName returns the leaf of a schema path.
func columnName(exPath, inPath string) string {
	p := exPath
	if p == "" {
		p = inPath
	}
	if i := strings.LastIndex(p, "\x01"); i >= 0 {
		p = p[i+1:]
	}
	return strings.ReplaceAll(p, tagComma, ",")
}

// storedColumns returns the column names recorded by WriteParquet, or nil
// for files written elsewhere.
func storedColumns(md *parquet.FileMetaData) []string {
	if md == nil {
		return nil
	}
	for _, kv := range md.KeyValueMetadata {
		if kv == nil || kv.Key != columnsKey || kv.Value == nil {
			continue
		}
		var names []string
		if err := json.Unmarshal([]byte(*kv.Value), &names); err != nil {
			return nil
		}
		return names
	}
	return nil
}

type parquetKind int

const (
	parquetText parquetKind = iota
	parquetDouble
	parquetBool
)

func parquetKindOf(values []any) parquetKind {
	switch table.KindOf(values) {
	case table.KindNumber:
		return parquetDouble
	case table.KindOther:
		for _, v := range values {
			if _, ok := v.(bool); !ok && v != nil {
				return parquetText
			}
		}
		return parquetBool
	default:
		return parquetText
	}
}

func (k parquetKind) tag(name string) string {
	name = strings.ReplaceAll(name, ",", tagComma)
	switch k {
	case parquetDouble:
		return fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name)
	case parquetBool:
		return fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", name)
	default:
		return fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
	}
}

func (k parquetKind) value(v any) any {
	if v == nil {
		return nil
	}
	switch k {
	case parquetDouble:
		n, _ := table.ToNumber(v)
		return n
	case parquetBool:
		return v
	default:
		return table.ToText(v)
	}
}
