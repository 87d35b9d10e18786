package normalize

import (
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
)

// CSVHandler reads comma-separated bulk extracts with a header row.
// Columns whose values are all numeric are stored as numbers.
func CSVHandler() Handler {
	return Handler{
		Format: "csv",
		Read: func(path string, _ *log.Logger) (*table.Table, error) {
			return tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: ',', Header: true, Infer: true})
		},
	}
}

// XLSXHandler reads the first sheet of a workbook. A Parquet column holds
// one physical type, so columns mixing numbers and text are converted to
// text.
func XLSXHandler() Handler {
	return Handler{
		Format: "xlsx",
		Read: func(path string, logger *log.Logger) (*table.Table, error) {
			t, err := tableio.ReadXLSX(path)
			if err != nil {
				return nil, err
			}
			for _, name := range t.Columns() {
				c, _ := t.Column(name)
				if table.Classify(c.Values) == table.Mixed {
					logger.Info("mixed type column, converting to text", "file", filepath.Base(path), "column", name)
					t.CoerceText(name)
				}
			}
			return t, nil
		},
	}
}

// DATHandler reads delimited text whose delimiter is not known up front.
// It is sniffed from the first non-blank line; when none is found the file
// is parsed as comma separated on a best-effort basis.
func DATHandler() Handler {
	return Handler{
		Format: "dat",
		Read: func(path string, logger *log.Logger) (*table.Table, error) {
			delim, err := SniffOrDefault(path, ',', logger)
			if err != nil {
				return nil, err
			}
			return tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: delim, Header: true, Infer: true})
		},
	}
}

// SniffOrDefault sniffs the delimiter of path and logs the result. When no
// delimiter is found it warns and returns fallback.
func SniffOrDefault(path string, fallback rune, logger *log.Logger) (rune, error) {
	delim, ok, line, err := SniffFile(path)
	if err != nil {
		return 0, err
	}
	if !ok {
		logger.Warn("unable to determine delimiter", "file", filepath.Base(path), "line", line)
		return fallback, nil
	}
	logger.Info("inferred delimiter", "file", filepath.Base(path), "delimiter", string(delim))
	return delim, nil
}
