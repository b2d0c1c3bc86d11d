package arg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var (
	eventsSince  uint64
	eventsFollow bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print recent events, optionally following new ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			out := cmd.OutOrStdout()
			if !eventsFollow {
				evs, err := c.EventsSince(eventsSince)
				if err != nil {
					return err
				}
				for _, ev := range evs {
					printEvent(out, ev)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Follow(ctx, func(ev events.Event) {
				if ev.Seq > eventsSince {
					printEvent(out, ev)
				}
			})
		})
	},
}

func printEvent(out io.Writer, ev events.Event) {
	kind := ui.Key.Render(string(ev.Kind))
	switch ev.Kind {
	case events.Error:
		kind = ui.Bad.Render(string(ev.Kind))
	case events.Warn, events.BreakDue:
		kind = ui.Warn.Render(string(ev.Kind))
	}
	fmt.Fprintf(out, "%s %s %s %s\n",
		ui.Muted.Render(fmt.Sprintf("#%d", ev.Seq)),
		ui.Muted.Render(ev.At.Format("15:04:05")),
		kind,
		ev.Message)
}

func init() {
	eventsCmd.Flags().Uint64Var(&eventsSince, "since", 0, "only events after this sequence number")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep printing events as they happen")
	rootCmd.AddCommand(eventsCmd)
}
