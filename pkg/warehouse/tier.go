package warehouse

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
)

// Tier names as reported in logs and cache hooks.
const (
	TierMemory  = "memory"
	TierParquet = "parquet"
	TierCSV     = "csv"
	TierQuery   = "query"
)

// fileTier is an on-disk cache tier holding one file per table.
type fileTier interface {
	Name() string
	Path(name string) string

	// Get reads the table, reporting false when no file exists.
	Get(ctx context.Context, name string) (*table.Table, bool, error)
}

type parquetTier struct{ dir string }

func (parquetTier) Name() string { return TierParquet }

func (c parquetTier) Path(name string) string { return filepath.Join(c.dir, name+".parquet") }

func (c parquetTier) Get(_ context.Context, name string) (*table.Table, bool, error) {
	path := c.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	t, err := tableio.ReadParquet(path)
	if err != nil {
		return nil, false, err
	}
	t.Name = name
	return t, true, nil
}

// csvTier reads every value as text with empty fields missing.
type csvTier struct{ dir string }

func (csvTier) Name() string { return TierCSV }

func (c csvTier) Path(name string) string { return filepath.Join(c.dir, name+".csv") }

func (c csvTier) Get(_ context.Context, name string) (*table.Table, bool, error) {
	path := c.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	t, err := tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: ',', Header: true})
	if err != nil {
		return nil, false, err
	}
	t.Name = name
	return t, true, nil
}

// Set writes t with its index column first.
func (c csvTier) Set(_ context.Context, name string, t *table.Table) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return tableio.WriteDelimitedFile(c.Path(name), t, ',')
}
