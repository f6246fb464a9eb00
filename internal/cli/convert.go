package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var modeID, formatID string

	cmd := &cobra.Command{
		Use:   "convert [dimension text]",
		Short: "Convert one dimension string from the terminal",
		Long: `Convert sends the text through the same prompt as the web form and prints
the model's reply. Without arguments the text is read from stdin.`,
		Example: `  dimconv convert --format format3 "100H x 50W x 25D"
  echo '12" H x 6" W x 3" D' | dimconv convert --mode metric --format format2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			if input == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				input = strings.TrimRight(string(raw), "\r\n")
			}
			if strings.TrimSpace(input) == "" {
				return errors.New("no dimension text given")
			}

			cfg, err := a.load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel, os.Stderr)

			service, err := newService(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}

			mode := service.Catalog().Mode(modeID)
			if modeID != "" && mode.ID != modeID {
				return fmt.Errorf("unknown mode %q, see 'dimconv formats'", modeID)
			}
			if formatID == "" {
				formatID = mode.FormatIDs[0]
			}

			result, err := service.Convert(cmd.Context(), mode.ID, formatID, input)
			if err != nil {
				return err
			}

			r := lipgloss.NewRenderer(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render(result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeID, "mode", "m", "", "conversion mode (default: the catalog default)")
	cmd.Flags().StringVarP(&formatID, "format", "f", "", "output format id (default: first format of the mode)")
	return cmd
}
