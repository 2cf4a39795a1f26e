package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/filter"
	"github.com/mqdash/mqdash/internal/mutate"
	"github.com/mqdash/mqdash/internal/ui"
)

var (
	tailConnection string
	tailSearch     string
	tailLimit      int
	tailFollow     bool
	clearForce     bool
)

// messagesCmd groups message feed subcommands.
var messagesCmd = &cobra.Command{
	Use:     "messages",
	Aliases: []string{"msgs"},
	Short:   "Inspect and manage the message feed",
}

var messagesTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent messages",
	Long: `Show the most recent messages across the platform, or for one
connection with --connection. With --follow the feed keeps polling and
printing new messages until interrupted.

Examples:
  mqdash messages tail --limit 50
  mqdash messages tail --connection c1 --follow
  mqdash messages tail --search temperature`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		fetch := func(ctx context.Context) (interface{}, error) {
			if tailConnection != "" {
				return client.ConnectionMessages(ctx, tailConnection)
			}
			return client.ListMessages(ctx)
		}

		if !tailFollow {
			value, err := fetch(cmd.Context())
			if err != nil {
				return err
			}
			msgs := value.([]api.Message)
			msgs = filter.Messages(msgs, filter.MessageSearch(tailSearch))
			if len(msgs) > tailLimit {
				msgs = msgs[len(msgs)-tailLimit:]
			}
			if machineMode {
				return WriteJSONSuccess(os.Stdout, msgs)
			}
			for _, m := range msgs {
				printMessage(m)
			}
			return nil
		}

		return followMessages(cfg.Refresh.Interval, fetch)
	},
}

// followMessages polls the feed through the cache and prints messages as
// they appear, until interrupted.
func followMessages(interval time.Duration, fetch cache.FetchFunc) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore()
	store.Register(cache.KeyMessages, fetch)
	scheduler := cache.NewScheduler(interval)
	poller := cache.NewPoller(scheduler, store)
	poller.RefreshAll(ctx)

	go poller.Run(ctx)

	seen := make(map[string]bool)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			entry, _ := store.Get(cache.KeyMessages)
			if !entry.HasValue() {
				continue
			}
			msgs, _ := entry.Value.([]api.Message)
			msgs = filter.Messages(msgs, filter.MessageSearch(tailSearch))
			for _, m := range msgs {
				if seen[m.ID] {
					continue
				}
				seen[m.ID] = true
				printMessage(m)
			}
		}
	}
}

// printMessage renders one feed line.
func printMessage(m api.Message) {
	qos := ""
	if m.QoS != nil {
		qos = fmt.Sprintf(" qos=%d", *m.QoS)
	}
	fmt.Printf("%s  %-30s %s%s\n", m.Timestamp.Format(time.RFC3339), m.Topic, m.Payload, qos)
}

var messagesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored messages",
	Long: `Delete every stored message for every connection. This cannot
be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		if !clearForce && !machineMode {
			confirmed, err := confirmAction("Clear all messages?",
				"This deletes every stored message for every connection.")
			if err != nil || !confirmed {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		coord := mutate.NewCoordinator(client, cache.NewStore(), nil)
		if err := coord.ClearMessages(cmd.Context()); err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]bool{"cleared": true})
		}
		fmt.Printf("%s Cleared all messages\n", ui.SymbolSuccess)
		return nil
	},
}

func init() {
	messagesTailCmd.Flags().StringVar(&tailConnection, "connection", "", "only this connection's feed")
	messagesTailCmd.Flags().StringVar(&tailSearch, "search", "", "case-insensitive topic/payload filter")
	messagesTailCmd.Flags().IntVar(&tailLimit, "limit", 100, "maximum messages to print")
	messagesTailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "keep polling and print new messages")

	messagesClearCmd.Flags().BoolVar(&clearForce, "force", false, "skip the confirmation prompt")

	messagesCmd.AddCommand(messagesTailCmd)
	messagesCmd.AddCommand(messagesClearCmd)
	rootCmd.AddCommand(messagesCmd)
}
