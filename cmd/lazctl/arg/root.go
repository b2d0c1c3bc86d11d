package arg

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/config"
	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var busName string

var rootCmd = &cobra.Command{
	Use:   "lazctl",
	Short: "lazctl is the command line tool for Lazaro",
	Long: `lazctl talks to the Lazaro break reminder daemon over D-Bus.
Use it to check the current break state, change settings and profiles,
and start, snooze or skip breaks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&busName, "bus", config.BusSession, "D-Bus bus the daemon listens on (session or system)")
}

// withClient dials the daemon for the duration of fn.
func withClient(fn func(c *ipc.Client) error) error {
	c, err := ipc.Dial(busName)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func formatError(err error) string {
	switch apperr.KindOf(err) {
	case "":
		return ui.Bad.Render(ui.IconWarn+" ") + err.Error()
	case apperr.KindPersistence:
		return ui.Bad.Render(ui.IconWarn+" persistence: ") + err.Error()
	default:
		return ui.Warn.Render(string(apperr.KindOf(err))+": ") + err.Error()
	}
}
