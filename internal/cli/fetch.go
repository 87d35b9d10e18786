package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nccs/pkg/acquire"
	"github.com/matzehuels/nccs/pkg/config"
	"github.com/matzehuels/nccs/pkg/loader"
	"github.com/matzehuels/nccs/pkg/normalize"
	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
	"github.com/matzehuels/nccs/pkg/urls"
)

type fetchOpts struct {
	year          int
	forms         []string
	force         bool
	skipEpostcard bool
	skipBMF       bool
	out           string
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and load the core files, epostcard and BMF data",
		Long: `Download the core filing extract of every configured form for one release
year, the epostcard notices and every BMF region, converting each to Parquet
beside the raw download. Files already present are reused unless --force is
set; the epostcard file is always downloaded again.`,
		Example: `  nccs fetch --year 2019 --forms EZ,PF
  nccs fetch --force --out tables/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("year") {
				cfg.Year = opts.year
			}
			if flags.Changed("forms") {
				cfg.Forms = opts.forms
			}
			if flags.Changed("force") {
				cfg.Force = opts.force
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runFetch(cmd, cfg, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.year, "year", "y", 0, "release year of the core files")
	cmd.Flags().StringSliceVarP(&opts.forms, "forms", "f", nil, "forms to load (e.g. EZ,Full,PF)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "download every file again")
	cmd.Flags().BoolVar(&opts.skipEpostcard, "skip-epostcard", false, "do not load the epostcard data")
	cmd.Flags().BoolVar(&opts.skipBMF, "skip-bmf", false, "do not load the BMF data")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write every loaded table as Parquet into this directory")
	_ = cmd.RegisterFlagCompletionFunc("forms", c.completeForms)
	_ = cmd.RegisterFlagCompletionFunc("year", c.completeYears)
	_ = cmd.MarkFlagDirname("out")

	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, cfg config.Config, opts fetchOpts) error {
	ctx := cmd.Context()
	l, err := c.newLoader(cfg)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	tables, err := l.LoadForms(ctx, cfg.Forms, cfg.Year)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("loaded %d core files for %d", len(tables), cfg.Year))

	loaded := make([]*table.Table, 0, len(cfg.Forms)+2)
	for _, form := range cfg.Forms {
		t := tables[form]
		t.Name = fmt.Sprintf("%s_%d", strings.ToLower(form), cfg.Year)
		loaded = append(loaded, t)
	}

	if !opts.skipEpostcard {
		prog = newProgress(c.Logger)
		t, err := l.LoadEpostcard(ctx)
		if err != nil {
			return err
		}
		prog.done("loaded epostcard")
		t.Name = "epostcard"
		loaded = append(loaded, t)
	}
	if !opts.skipBMF {
		prog = newProgress(c.Logger)
		t, err := l.LoadBMF(ctx)
		if err != nil {
			return err
		}
		prog.done("loaded BMF")
		t.Name = "bmf"
		loaded = append(loaded, t)
	}

	printNewline()
	for _, t := range loaded {
		printTableSummary(t)
	}

	if opts.out != "" {
		if err := exportTables(opts.out, loaded); err != nil {
			return err
		}
	}
	return nil
}

// newLoader wires the URL map, acquirer and normalizer for cfg.
func (c *CLI) newLoader(cfg config.Config) (*loader.Loader, error) {
	m, err := urls.Load(cfg.URLsDir(), cfg.Forms)
	if err != nil {
		return nil, err
	}
	acq, err := acquire.New(acquire.Options{
		Dir:     cfg.DownloadDir(),
		Force:   cfg.Force,
		Headers: cfg.Download.Headers,
		Timeout: cfg.Timeout(),
	}, normalize.New(c.Logger), c.Logger)
	if err != nil {
		return nil, err
	}
	return loader.New(m, acq, loader.Options{
		CoreDelimiter:      config.Rune(cfg.Delimiters.Core),
		EpostcardDelimiter: config.Rune(cfg.Delimiters.Epostcard),
		BMFDelimiter:       config.Rune(cfg.Delimiters.BMF),
	}, c.Logger), nil
}

func exportTables(dir string, tables []*table.Table) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".parquet")
		if err := tableio.WriteParquet(path, t); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
