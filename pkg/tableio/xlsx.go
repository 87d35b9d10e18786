package tableio

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/nccs/pkg/table"
)

// ReadXLSX reads the first sheet of a workbook. The first row holds the
// column names. Cells are read as raw values, so numbers arrive unformatted
// and become float64; everything else is text. Columns can therefore mix
// numbers and text.
func ReadXLSX(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in %s", filepath.Base(path))
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, filepath.Base(path), err)
	}

	t := table.New(filepath.Base(path))
	if len(rows) == 0 {
		return t, nil
	}

	header := rows[0]
	body := rows[1:]
	width := len(header)
	for _, r := range body {
		width = max(width, len(r))
	}
	names := make([]string, width)
	copy(names, header)
	names = uniqueNames(names)

	for c, name := range names {
		values := make([]any, len(body))
		for r, row := range body {
			if c < len(row) {
				values[r] = table.ParseCell(row[c])
			}
		}
		if err := t.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}
