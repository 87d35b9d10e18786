package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download and warehouse cache directories",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete downloaded files and their Parquet conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dirs := []string{cfg.DownloadDir()}
			if all {
				dirs = append(dirs, cfg.WarehouseDir())
			}
			for _, dir := range dirs {
				count, err := clearDir(dir)
				if err != nil {
					return err
				}
				if count == 0 {
					printInfo("Nothing cached in %s", dir)
					continue
				}
				printSuccess("Cleared %d cached files", count)
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also clear the warehouse cache directory")
	return cmd
}

// clearDir removes every file below dir and then its empty
// subdirectories. dir itself is kept.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	var subdirs []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if info.IsDir() {
			subdirs = append(subdirs, path)
			return nil
		}
		// downloads may have been left read-only
		_ = os.Chmod(path, 0o644)
		if err := os.Remove(path); err == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("clear %s: %w", dir, err)
	}
	for i := len(subdirs) - 1; i >= 0; i-- {
		os.Remove(subdirs[i])
	}
	return count, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			printKeyValue("downloads", cfg.DownloadDir())
			printKeyValue("warehouse", cfg.WarehouseDir())
			printKeyValue("urls", cfg.URLsDir())
			return nil
		},
	}
}
