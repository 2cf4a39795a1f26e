package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/mutate"
	"github.com/mqdash/mqdash/internal/ui"
)

var (
	connsUserFilter   string
	connsStatusFilter string
)

// connectionsCmd groups broker connection subcommands.
var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conns"},
	Short:   "Manage broker connections",
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List broker connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		conns, err := client.ListConnections(cmd.Context())
		if err != nil {
			return err
		}

		filtered := conns[:0]
		for _, c := range conns {
			if connsUserFilter != "" && c.UserID != connsUserFilter {
				continue
			}
			if connsStatusFilter == "connected" && !c.IsConnected {
				continue
			}
			if connsStatusFilter == "disconnected" && c.IsConnected {
				continue
			}
			filtered = append(filtered, c)
		}
		conns = filtered

		if machineMode {
			return WriteJSONSuccess(os.Stdout, conns)
		}

		if len(conns) == 0 {
			fmt.Println("No connections.")
			return nil
		}

		rows := make([][]string, len(conns))
		for i, c := range conns {
			status := ui.SymbolDisconnected + " down"
			if c.IsConnected {
				status = ui.SymbolConnected + " up"
			}
			rows[i] = []string{
				c.ID, c.Name, status,
				fmt.Sprintf("%s://%s:%d", c.Protocol, c.BrokerURL, c.Port),
				c.ClientID,
			}
		}
		fmt.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "ID", Width: 24},
			{Title: "NAME", Width: 20},
			{Title: "STATUS", Width: 8},
			{Title: "BROKER", Width: 32},
			{Title: "CLIENT ID", Width: 20},
		}, rows))
		return nil
	},
}

var connectionsConnectCmd = &cobra.Command{
	Use:   "connect <id>",
	Short: "Open a broker connection",
	Long: `Ask the server to open a broker connection. Connecting an
already-connected connection is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConnected(cmd, args[0], true)
	},
}

var connectionsDisconnectCmd = &cobra.Command{
	Use:   "disconnect <id>",
	Short: "Close a broker connection",
	Long: `Ask the server to close a broker connection. Disconnecting an
already-disconnected connection is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConnected(cmd, args[0], false)
	},
}

// setConnected drives a connect or disconnect through the coordinator.
func setConnected(cmd *cobra.Command, id string, want bool) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	coord := mutate.NewCoordinator(client, cache.NewStore(), nil)
	if want {
		err = coord.Connect(cmd.Context(), id)
	} else {
		err = coord.Disconnect(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	verb := "Disconnect"
	if want {
		verb = "Connect"
	}
	if machineMode {
		return WriteJSONSuccess(os.Stdout, map[string]string{"id": id, "requested": verb})
	}
	fmt.Printf("%s %s requested for %s\n", ui.SymbolSuccess, verb, id)
	return nil
}

func init() {
	connectionsListCmd.Flags().StringVar(&connsUserFilter, "user", "", "filter by owning user id")
	connectionsListCmd.Flags().StringVar(&connsStatusFilter, "status", "", "filter by status (connected, disconnected)")

	connectionsCmd.AddCommand(connectionsListCmd)
	connectionsCmd.AddCommand(connectionsConnectCmd)
	connectionsCmd.AddCommand(connectionsDisconnectCmd)
	rootCmd.AddCommand(connectionsCmd)
}
