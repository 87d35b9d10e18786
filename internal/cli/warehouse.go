package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nccs/pkg/config"
	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
	"github.com/matzehuels/nccs/pkg/warehouse"
)

type warehouseGetOpts struct {
	database     string
	columns      []string
	index        string
	reference    string
	forceColumns bool
	connect      bool
	offline      bool
	out          string
}

// warehouseCommand creates the warehouse command group.
func (c *CLI) warehouseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Read tables from the warehouse and its local cache",
	}
	cmd.AddCommand(c.warehouseGetCommand())
	return cmd
}

func (c *CLI) warehouseGetCommand() *cobra.Command {
	var opts warehouseGetOpts

	cmd := &cobra.Command{
		Use:   "get <table>",
		Short: "Resolve a table from memory, the cache directory or a live query",
		Long: `Resolve a warehouse table. The cache directory is searched for
<table>.parquet and then <table>.csv; only when neither exists is the
warehouse queried. Query results are saved as <table>.csv for later runs.`,
		Example: `  nccs warehouse get bmf_2020 --columns NAME,STATE
  nccs warehouse get core_2019_pf --like core_2018_pf.parquet --connect`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeTables,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if opts.connect {
				cfg.Warehouse.Enabled = true
			}
			if opts.offline {
				cfg.Warehouse.Enabled = false
			}
			if opts.database == "" {
				opts.database = cfg.Warehouse.Database
			}
			return c.runWarehouseGet(cmd, cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.database, "database", "d", "", "database (schema) to query (default from config)")
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "columns to return (default all)")
	cmd.Flags().StringVar(&opts.index, "index", "EIN", "key column; empty for none")
	cmd.Flags().StringVar(&opts.reference, "like", "", "reconcile column types to this .parquet or .csv table")
	cmd.Flags().BoolVar(&opts.forceColumns, "force-columns", false, "select only the requested columns in the query")
	cmd.Flags().BoolVar(&opts.connect, "connect", false, "connect to the warehouse even if disabled in config")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use the cache directory only")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the result to a .csv or .parquet file")
	cmd.MarkFlagsMutuallyExclusive("connect", "offline")
	_ = cmd.MarkFlagFilename("like", "parquet", "csv")
	_ = cmd.MarkFlagFilename("out", "parquet", "csv")

	return cmd
}

func (c *CLI) runWarehouseGet(cmd *cobra.Command, cfg config.Config, name string, opts warehouseGetOpts) error {
	ctx := cmd.Context()

	req := warehouse.Request{
		Name:         name,
		Database:     opts.database,
		Columns:      opts.columns,
		IndexKey:     opts.index,
		ForceColumns: opts.forceColumns,
	}
	if opts.reference != "" {
		ref, err := readTable(opts.reference)
		if err != nil {
			return err
		}
		req.Reference = ref
	}

	s := warehouse.Open(ctx, warehouse.Options{
		Enabled:        cfg.Warehouse.Enabled,
		Host:           cfg.Warehouse.Host,
		Port:           cfg.Warehouse.Port,
		SSLMode:        cfg.Warehouse.SSLMode,
		Driver:         cfg.Warehouse.Driver,
		Dir:            cfg.WarehouseDir(),
		NumericColumns: cfg.Warehouse.NumericColumns,
	}, warehouse.NewTerminalPrompter(), c.Logger)
	defer s.Close()
	if cfg.Warehouse.Enabled && !s.Connected() {
		printWarning("Not connected to the warehouse, only cached tables are available")
	}

	prog := newProgress(c.Logger)
	t, err := s.Resolve(ctx, req)
	if err != nil {
		return err
	}
	prog.done("resolved " + name)

	printTableSummary(t)
	printDetail("columns: %s", strings.Join(t.Columns(), ", "))
	if opts.out != "" {
		if err := writeTable(opts.out, t); err != nil {
			return err
		}
		printFile(opts.out)
	}
	return nil
}

// readTable reads a reference table by extension.
func readTable(path string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return tableio.ReadParquet(path)
	case ".csv":
		return tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: ',', Header: true, Infer: true})
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "cannot read %s: want .parquet or .csv", path)
	}
}

func writeTable(path string, t *table.Table) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		err = tableio.WriteParquet(path, t)
	case ".csv":
		err = tableio.WriteDelimitedFile(path, t, ',')
	default:
		return errs.New(errs.ErrCodeUnsupported, "cannot write %s: want .parquet or .csv", path)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
