package cli

import (
	"fmt"
	"strings"

	"dimconv/internal/formats"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newFormatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List modes and their output formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			catalog, err := formats.LoadFile(cfg.FormatsFile)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header([]string{"Mode", "Format", "Unit", "Example"})
			for _, m := range catalog.Modes {
				label := m.ID
				if m.ID == catalog.Mode("").ID {
					label += " (default)"
				}
				for _, f := range catalog.FormatsFor(m) {
					if err := table.Append([]string{label, f.ID, f.Unit, f.Example}); err != nil {
						return fmt.Errorf("render formats: %w", err)
					}
				}
			}
			if err := table.Render(); err != nil {
				return fmt.Errorf("render formats: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nModes: %s\n", strings.Join(modeIDs(catalog), ", "))
			return nil
		},
	}
}

func modeIDs(c *formats.Catalog) []string {
	ids := make([]string, 0, len(c.Modes))
	for _, m := range c.Modes {
		ids = append(ids, m.ID)
	}
	return ids
}
