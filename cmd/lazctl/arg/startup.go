package arg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var startupCmd = &cobra.Command{
	Use:       "startup <xdg_only|xdg_and_systemd>",
	Short:     "Install login autostart entries",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"xdg_only", "xdg_and_systemd"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			if err := c.SetStartupMode(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconDone+" Startup mode:"), ui.Key.Render(args[0]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(startupCmd)
}
