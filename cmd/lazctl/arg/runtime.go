package arg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/ui"
)

// simpleCmd builds a command that makes one argument-less call.
func simpleCmd(use, short, done string, call func(c *ipc.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *ipc.Client) error {
				if err := call(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" "+done))
				return nil
			})
		},
	}
}

var triggerCmd = &cobra.Command{
	Use:       "trigger <micro|rest|daily_limit>",
	Short:     "Start a break right now",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"micro", "rest", "daily_limit"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			if err := c.TriggerBreak(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconBreak+" Break started:"), ui.Key.Render(args[0]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(
		simpleCmd("start", "Resume break scheduling", "Runtime started", (*ipc.Client).StartRuntime),
		simpleCmd("stop", "Pause break scheduling", "Runtime stopped", (*ipc.Client).StopRuntime),
		simpleCmd("start-pending", "Start the pending break", "Break started", (*ipc.Client).StartPendingBreak),
		simpleCmd("snooze", "Postpone the pending break", "Break snoozed", (*ipc.Client).SnoozePendingBreak),
		simpleCmd("skip", "End the running break early", "Break skipped", (*ipc.Client).SkipBreak),
		simpleCmd("ack", "Acknowledge the daily limit block", "Block acknowledged", (*ipc.Client).AcknowledgeBlock),
		triggerCmd,
	)
}
