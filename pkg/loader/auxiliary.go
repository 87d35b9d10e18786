package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/normalize"
	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
)

// LoadEpostcard loads the notice filing table. The source only publishes
// its current snapshot, so the file is always downloaded again.
func (l *Loader) LoadEpostcard(ctx context.Context) (*table.Table, error) {
	u := l.urls.Epostcard()
	if u == "" {
		return nil, errs.New(errs.ErrCodeMissingURL, "URL not found for epostcard data; check the urls folder")
	}
	l.logger.Info("loading epostcard", "url", u)
	path, err := l.acq.Acquire(ctx, u, true)
	if err != nil {
		return nil, err
	}

	var raw *table.Table
	if strings.EqualFold(filepath.Ext(path), normalize.CanonicalExt) {
		raw, err = firstColumns(path, EIN, EPOSTCARD)
	} else {
		raw, err = tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{
			Comma:   l.opts.EpostcardDelimiter,
			UseCols: []int{0, 1},
			Names:   []string{EIN, EPOSTCARD},
		})
	}
	if err != nil {
		return nil, err
	}
	return BuildEpostcard(raw)
}

// firstColumns reads a canonical artifact and keeps its leading columns
// under new names.
func firstColumns(path string, names ...string) (*table.Table, error) {
	t, err := tableio.ReadParquet(path)
	if err != nil {
		return nil, err
	}
	cols := t.Columns()
	if len(cols) < len(names) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "%s has %d columns, want at least %d",
			filepath.Base(path), len(cols), len(names))
	}
	for i, n := range names {
		if cols[i] != n && !t.Rename(cols[i], n) {
			return nil, errs.New(errs.ErrCodeInvalidInput, "%s: cannot rename column %q to %q",
				filepath.Base(path), cols[i], n)
		}
	}
	return t.Select(names)
}

// BuildEpostcard turns the raw two-column notice filing table into the
// EIN-indexed table: EINs become integers, rows without a filing date are
// dropped and every EIN must be unique.
func BuildEpostcard(raw *table.Table) (*table.Table, error) {
	ein, ok := raw.Column(EIN)
	date, hasDate := raw.Column(EPOSTCARD)
	if !ok || !hasDate {
		return nil, errs.New(errs.ErrCodeInvalidInput, "epostcard data needs %s and %s columns", EIN, EPOSTCARD)
	}
	for i, v := range ein.Values {
		n, err := integerEIN(v)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "epostcard row %d", i+1)
		}
		ein.Values[i] = n
	}
	for i, v := range date.Values {
		if v != nil {
			date.Values[i] = table.ToText(v)
		}
	}

	t := raw.Filter(func(row int) bool {
		d, _ := raw.Value(row, EPOSTCARD).(string)
		return strings.TrimSpace(d) != ""
	})
	if err := t.SetIndex(EIN); err != nil {
		return nil, err
	}
	if err := requireUnique(t, "epostcard"); err != nil {
		return nil, err
	}
	return t, nil
}

func integerEIN(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		if x != float64(int64(x)) {
			return 0, fmt.Errorf("EIN %v is not an integer", x)
		}
		return x, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("EIN %q is not an integer", x)
		}
		return float64(n), nil
	default:
		return 0, fmt.Errorf("EIN %v is not an integer", v)
	}
}

// LoadBMF loads every registry region in sorted order and combines them.
// Partitions that are neither Parquet nor .csv are logged and skipped.
func (l *Loader) LoadBMF(ctx context.Context) (*table.Table, error) {
	regions := l.urls.Regions()
	bmf := l.urls.BMF()
	var names []string
	parts := make(map[string]*table.Table, len(regions))
	for _, region := range regions {
		u := bmf[region]
		l.logger.Info("loading BMF", "region", region, "url", u)
		path, err := l.acq.Acquire(ctx, u, false)
		if err != nil {
			return nil, err
		}
		var t *table.Table
		switch strings.ToLower(filepath.Ext(path)) {
		case normalize.CanonicalExt:
			t, err = tableio.ReadParquet(path)
		case ".csv":
			t, err = tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: l.opts.BMFDelimiter, Header: true})
		default:
			l.logger.Warn("unsupported file extension, skipping", "file", filepath.Base(path), "region", region)
			continue
		}
		if err != nil {
			return nil, err
		}
		names = append(names, region)
		parts[region] = t
	}
	return BuildBMF(names, parts)
}

// BuildBMF stacks the registry partitions in the given region order, tags
// each row with its REGION, indexes the result by EIN and requires every
// EIN to be unique across regions.
func BuildBMF(regions []string, parts map[string]*table.Table) (*table.Table, error) {
	if len(regions) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no BMF partitions could be read")
	}
	ordered := make([]*table.Table, 0, len(regions))
	for _, r := range regions {
		p := parts[r]
		p.Fill(REGION, r)
		ordered = append(ordered, p)
	}
	t := table.Concat("bmf", ordered...)
	if err := t.SetIndex(EIN); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "BMF data")
	}
	if err := requireUnique(t, "BMF"); err != nil {
		return nil, err
	}
	return t, nil
}

func requireUnique(t *table.Table, what string) error {
	dups := t.DuplicateKeys()
	if len(dups) == 0 {
		return nil
	}
	shown := dups
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return errs.New(errs.ErrCodeDuplicateKey, "expected unique EINs in %s data, %d duplicated (%s)",
		what, len(dups), strings.Join(shown, ", "))
}
