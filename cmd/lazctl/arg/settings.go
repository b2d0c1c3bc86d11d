package arg

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carlosrm22/lazaro/internal/apperr"
	"github.com/carlosrm22/lazaro/internal/ipc"
	"github.com/carlosrm22/lazaro/internal/settings"
	"github.com/carlosrm22/lazaro/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the active settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the active settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			s, err := c.GetSettings()
			if err != nil {
				return err
			}
			return printSettings(cmd, s.ToWire())
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change settings on the active profile",
	Example: `  lazctl settings set micro_interval_seconds=300 block_level=strict
  lazctl settings set daily_reset_time=05:30`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *ipc.Client) error {
			current, err := c.GetSettings()
			if err != nil {
				return err
			}
			wire := current.ToWire()
			// An empty id writes to the active profile.
			wire.ActiveProfileID = ""
			wire, err = applyAssignments(wire, args)
			if err != nil {
				return err
			}
			next, err := wire.Settings()
			if err != nil {
				return err
			}
			stored, err := c.UpdateSettings(next)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" Settings updated"))
			return printSettings(cmd, stored.ToWire())
		})
	},
}

// applyAssignments sets wire fields by their JSON names.
func applyAssignments(wire settings.Wire, assignments []string) (settings.Wire, error) {
	data, err := json.Marshal(wire)
	if err != nil {
		return wire, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return wire, err
	}

	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return wire, apperr.New(apperr.KindValidation, "settings_set", "expected key=value, got %q", a)
		}
		current, known := fields[key]
		if !known && key != "active_profile_id" {
			return wire, apperr.New(apperr.KindValidation, "settings_set", "unknown setting %q", key)
		}
		switch current.(type) {
		case float64:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return wire, apperr.New(apperr.KindValidation, "settings_set", "%s must be a whole number of seconds", key)
			}
			fields[key] = n
		case bool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return wire, apperr.New(apperr.KindValidation, "settings_set", "%s must be true or false", key)
			}
			fields[key] = b
		default:
			fields[key] = value
		}
	}

	data, err = json.Marshal(fields)
	if err != nil {
		return wire, err
	}
	var out settings.Wire
	if err := json.Unmarshal(data, &out); err != nil {
		return wire, err
	}
	return out, nil
}

func printSettings(cmd *cobra.Command, wire settings.Wire) error {
	data, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Heading("⚙️", "Settings"))
	for _, k := range keys {
		fmt.Fprintln(out, ui.LabelValue(k, fields[k]))
	}
	return nil
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
