package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/mutate"
	"github.com/mqdash/mqdash/internal/ui"
)

var (
	publishQoS    int
	publishRetain bool
)

// publishCmd sends a message through a broker connection.
var publishCmd = &cobra.Command{
	Use:   "publish <connection-id> <topic> [payload]",
	Short: "Publish a message through a connection",
	Long: `Publish a message through one of the platform's broker connections.

The message is handed to the server and shows up in the feed once the
server has stored it; the command does not wait for broker delivery.

Examples:
  mqdash publish c1 actuators/valve '{"open": true}'
  mqdash publish c1 sensors/ping --qos 1`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		payload := ""
		if len(args) == 3 {
			payload = args[2]
		}

		coord := mutate.NewCoordinator(client, cache.NewStore(), nil)
		err = coord.Publish(cmd.Context(), args[0], api.PublishRequest{
			Topic:   args[1],
			Payload: payload,
			QoS:     publishQoS,
			Retain:  publishRetain,
		})
		if err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]string{"connection": args[0], "topic": args[1]})
		}
		fmt.Printf("%s Published to %s\n", ui.SymbolSuccess, args[1])
		return nil
	},
}

func init() {
	publishCmd.Flags().IntVar(&publishQoS, "qos", 0, "quality of service (0, 1, or 2)")
	publishCmd.Flags().BoolVar(&publishRetain, "retain", false, "set the retain flag")
	rootCmd.AddCommand(publishCmd)
}
