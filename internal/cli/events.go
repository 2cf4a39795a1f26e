package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/ui"
)

var eventsLimit int

// eventsCmd groups audit feed subcommands.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show security and activity events",
}

var eventsSecurityCmd = &cobra.Command{
	Use:   "security",
	Short: "Show security events",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		events, err := client.SecurityEvents(cmd.Context())
		if err != nil {
			return err
		}
		if len(events) > eventsLimit {
			events = events[len(events)-eventsLimit:]
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, events)
		}

		if len(events) == 0 {
			fmt.Println("No security events.")
			return nil
		}
		rows := make([][]string, len(events))
		for i, e := range events {
			rows[i] = []string{
				e.Timestamp.Format(time.RFC3339),
				e.Severity,
				e.Type,
				e.Message,
			}
		}
		fmt.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "TIME", Width: 20},
			{Title: "SEVERITY", Width: 8},
			{Title: "TYPE", Width: 16},
			{Title: "MESSAGE", Width: 50},
		}, rows))
		return nil
	},
}

var eventsActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the user activity feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		events, err := client.UserActivity(cmd.Context())
		if err != nil {
			return err
		}
		if len(events) > eventsLimit {
			events = events[len(events)-eventsLimit:]
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, events)
		}

		if len(events) == 0 {
			fmt.Println("No activity.")
			return nil
		}
		rows := make([][]string, len(events))
		for i, e := range events {
			rows[i] = []string{
				e.Timestamp.Format(time.RFC3339),
				e.UserID,
				e.Action,
				e.Details,
			}
		}
		fmt.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "TIME", Width: 20},
			{Title: "USER", Width: 24},
			{Title: "ACTION", Width: 16},
			{Title: "DETAILS", Width: 40},
		}, rows))
		return nil
	},
}

func init() {
	eventsCmd.PersistentFlags().IntVar(&eventsLimit, "limit", 50, "maximum events to print")

	eventsCmd.AddCommand(eventsSecurityCmd)
	eventsCmd.AddCommand(eventsActivityCmd)
	rootCmd.AddCommand(eventsCmd)
}
