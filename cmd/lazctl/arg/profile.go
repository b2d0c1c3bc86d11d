package arg

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/profile"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var profileName string

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"p"},
	Short:   "Manage settings profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			profiles, err := c.ListProfiles()
			if err != nil {
				return err
			}
			active, err := c.GetSettings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconUser, "Profiles"))
			for _, p := range profiles {
				marker := "  "
				if p.ID == active.ActiveProfileID {
					marker = ui.Good.Render("* ")
				}
				fmt.Fprintf(out, "%s%s %s\n", marker, ui.Key.Render(p.ID), ui.Muted.Render(p.Name))
			}
			return nil
		})
	},
}

var profileSaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save the active settings as a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			current, err := c.GetSettings()
			if err != nil {
				return err
			}
			saved, err := c.SaveProfile(profile.Profile{ID: args[0], Name: profileName, Settings: current})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconDone+" Saved profile"), ui.Key.Render(saved.ID))
			return nil
		})
	},
}

var profileActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Switch to a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			if err := c.ActivateProfile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconDone+" Active profile:"), ui.Key.Render(args[0]))
			return nil
		})
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			if err := c.RemoveProfile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconDone+" Removed profile"), ui.Key.Render(args[0]))
			return nil
		})
	},
}

func init() {
	profileSaveCmd.Flags().StringVarP(&profileName, "name", "n", "", "display name (defaults to the id)")
	profileCmd.AddCommand(profileListCmd, profileSaveCmd, profileActivateCmd, profileRemoveCmd)
	rootCmd.AddCommand(profileCmd)
}
