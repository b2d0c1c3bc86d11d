package arg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/engine"
	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running break state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			snap, err := c.GetRuntimeStatus()
			if err != nil {
				return err
			}
			printStatus(cmd, snap)
			return nil
		})
	},
}

func printStatus(cmd *cobra.Command, snap engine.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Heading(ui.IconBreak, "Lazaro"))

	running := ui.Good.Render("running")
	if !snap.Running {
		running = ui.Muted.Render("stopped")
	}
	fmt.Fprintln(out, ui.LabelValue("Runtime", running))
	if snap.StrictMode {
		fmt.Fprintln(out, ui.LabelValue("Policy", ui.Bad.Render("strict")))
	}
	fmt.Fprintln(out, ui.LabelValue("Block", ui.StatusText(string(snap.Block))))

	switch {
	case snap.ActiveBreak != "":
		fmt.Fprintln(out, ui.LabelValue("Active break", fmt.Sprintf("%s (%s left)", snap.ActiveBreak, ui.Seconds(deref(snap.RemainingSeconds)))))
	case snap.NextBreakKind != "":
		fmt.Fprintln(out, ui.LabelValue("Next break", fmt.Sprintf("%s in %s", snap.NextBreakKind, ui.Seconds(deref(snap.NextBreakSeconds)))))
	}
	if snap.PendingBreak != "" {
		fmt.Fprintln(out, ui.LabelValue("Pending", ui.Warn.Render(string(snap.PendingBreak))))
	}
	if snap.LastEvent != "" {
		fmt.Fprintln(out, ui.LabelValue("Last event", ui.Muted.Render(string(snap.LastEvent))))
	}

	fmt.Fprintln(out, "")
	fmt.Fprintln(out, ui.H2.Render(ui.IconClock+" Tracks"))
	for _, t := range snap.Tracks {
		if !t.Enabled {
			fmt.Fprintf(out, "- %s %s\n", ui.Key.Render(string(t.Kind)+":"), ui.EnabledText(false))
			continue
		}
		line := fmt.Sprintf("- %s %s %s", ui.Key.Render(string(t.Kind)+":"), ui.StatusText(string(t.Status)),
			ui.Muted.Render(fmt.Sprintf("(%s of %s)", ui.Seconds(t.ElapsedSeconds), ui.Seconds(t.IntervalSeconds))))
		if t.RemainingSeconds != nil {
			line += " " + ui.Muted.Render(ui.Seconds(*t.RemainingSeconds)+" left")
		}
		fmt.Fprintln(out, line)
	}
}

func deref(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
