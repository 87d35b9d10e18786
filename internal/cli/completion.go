package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nccs/pkg/config"
	"github.com/matzehuels/nccs/pkg/urls"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for nccs.

Besides commands and flags, the scripts complete form names for --forms and
release years for --year from the URL settings directory, and table names for
"warehouse get" from the warehouse cache directory.

Bash:
  $ source <(nccs completion bash)

Zsh:
  $ nccs completion zsh > "${fpath[1]}/_nccs"

Fish:
  $ nccs completion fish > ~/.config/fish/completions/nccs.fish

PowerShell:
  PS> nccs completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeForms lists the forms that have a registry file in the URL
// settings directory.
func (c *CLI) completeForms(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	// --forms takes a comma separated list; complete the last element only
	done, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		done, last = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, form := range formNames(cfg.URLsDir()) {
		if hasPrefixFold(form, last) {
			out = append(out, done+form)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeYears lists the release years configured for the selected forms.
func (c *CLI) completeYears(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	forms := cfg.Forms
	if f := cmd.Flags().Lookup("forms"); f != nil && f.Changed {
		forms, _ = cmd.Flags().GetStringSlice("forms")
	}

	var years []int
	for _, form := range forms {
		f, err := os.Open(filepath.Join(cfg.URLsDir(), urls.FormFile(form)))
		if err != nil {
			continue
		}
		parsed, err := urls.ParseForm(f)
		f.Close()
		if err != nil {
			continue
		}
		for year := range parsed {
			if !slices.Contains(years, year) {
				years = append(years, year)
			}
		}
	}
	slices.Sort(years)

	var out []string
	for _, year := range years {
		if s := strconv.Itoa(year); strings.HasPrefix(s, toComplete) {
			out = append(out, s)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeTables lists the tables cached in the warehouse directory.
func (c *CLI) completeTables(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range tableNames(cfg.WarehouseDir()) {
		if strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// formNames returns the form registries found in dir, spelled the way the
// default configuration spells them when it knows the form.
func formNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	known := config.Default().Forms
	var forms []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".txt") {
			continue
		}
		if name == urls.EpostcardFile || name == urls.BMFFile {
			continue
		}
		form := strings.TrimSuffix(name, filepath.Ext(name))
		for _, k := range known {
			if strings.EqualFold(k, form) {
				form = k
				break
			}
		}
		forms = append(forms, form)
	}
	slices.Sort(forms)
	return forms
}

// tableNames returns the distinct stems of the .parquet and .csv files in
// dir, sorted.
func tableNames(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".parquet" && ext != ".csv" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
