package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nccs/pkg/urls"
)

// urlsCommand prints the URL map.
func (c *CLI) urlsCommand() *cobra.Command {
	var forms []string

	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Print the download URLs read from the settings directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("forms") {
				cfg.Forms = forms
			}
			m, err := urls.Load(cfg.URLsDir(), cfg.Forms)
			if err != nil {
				return err
			}
			printURLMap(m)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&forms, "forms", "f", nil, "forms to list (default from config)")
	return cmd
}

func printURLMap(m *urls.Map) {
	for _, form := range m.Forms() {
		printTitle(form)
		years := m.Years(form)
		if len(years) == 0 {
			printDetail("no URLs")
		}
		for _, y := range years {
			u, _ := m.URL(form, y)
			printURL(strconv.Itoa(y), u)
		}
	}

	printTitle("epostcard")
	if u := m.Epostcard(); u != "" {
		printURL("epostcard", u)
	} else {
		printDetail("no URL")
	}

	printTitle("BMF")
	bmf := m.BMF()
	regions := m.Regions()
	if len(regions) == 0 {
		printDetail("no URLs")
	}
	for _, r := range regions {
		printURL(r, bmf[r])
	}
}
