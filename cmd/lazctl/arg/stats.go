package arg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var historyDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show this week's break counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			w, err := c.GetWeeklyStats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconStats, "This week"))
			fmt.Fprintln(out, ui.LabelValue("Active time", ui.Seconds(w.TotalActiveSeconds)))
			fmt.Fprintln(out, ui.LabelValue("Micro breaks", w.MicroDone))
			fmt.Fprintln(out, ui.LabelValue("Rest breaks", w.RestDone))
			fmt.Fprintln(out, ui.LabelValue("Daily limit hits", w.DailyLimitHits))
			fmt.Fprintln(out, ui.LabelValue("Skipped", w.Skipped))
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show per-day counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			days, err := c.GetDailyHistory(historyDays)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconStats, "History"))
			fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%-10s  %9s  %5s  %4s  %5s  %7s", "day", "active", "micro", "rest", "limit", "skipped")))
			for _, d := range days {
				fmt.Fprintf(out, "%-10s  %9s  %5d  %4d  %5d  %7d\n",
					d.Day, ui.Seconds(d.ActiveSeconds), d.MicroDone, d.RestDone, d.DailyLimitHits, d.Skipped)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 7, "number of days to show")
	rootCmd.AddCommand(statsCmd, historyCmd)
}
