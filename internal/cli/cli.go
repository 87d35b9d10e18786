// Package cli implements the nccs command-line interface.
//
// # Commands
//
//   - fetch: download the core filing extracts, epostcard and BMF data
//   - urls: print the URL map read from the settings directory
//   - warehouse get: resolve a warehouse table through the cache tiers
//   - cache: show or clear the download and warehouse cache directories
//   - version: print build information
//
// Settings come from nccs.toml (see package config); flags override the
// file. Every run gets a run ID that is attached to all log lines.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nccs/pkg/buildinfo"
	"github.com/matzehuels/nccs/pkg/config"
	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/observability"
)

const appName = "nccs"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	RunID  string

	configPath string
	root       string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nccs downloads and normalizes tax-exempt organization filing data",
		Long: `nccs fetches IRS core filing extracts, epostcard notices and the Business
Master File from their distribution points, converts them to Parquet and loads
them as EIN-indexed tables. Warehouse tables are served through a local cache.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.startRun()
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "run file (default ./"+config.FileName+" if present)")
	root.PersistentFlags().StringVar(&c.root, "root", "", "directory the settings and download paths are relative to")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.urlsCommand())
	root.AddCommand(c.warehouseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// startRun assigns the run ID and registers the logging hooks.
func (c *CLI) startRun() {
	if c.RunID == "" {
		c.RunID = uuid.NewString()
		c.Logger = c.Logger.With("run", c.RunID[:8])
	}
	hooks := &logHooks{logger: c.Logger}
	observability.SetAcquireHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
}

// loadConfig reads the run file and applies the persistent flags.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			path = config.FileName
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if c.root != "" {
		cfg.Root = c.root
	}
	if path != "" {
		c.Logger.Debug("loaded config", "file", path)
	}
	return cfg, nil
}

// ErrorMessage renders an error returned by a command for the terminal.
// Coded failures are shown as their code and user message; anything else
// is labelled unexpected.
func ErrorMessage(err error) string {
	var e *errs.Error
	if !errs.Fatal(err) || !errors.As(err, &e) {
		return "unexpected error: " + err.Error()
	}
	msg := fmt.Sprintf("%s: %s", e.Code, errs.UserMessage(err))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}
