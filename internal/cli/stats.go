package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/analytics"
	"github.com/mqdash/mqdash/internal/ui"
)

var statsConnection string

// statsCmd prints the platform overview and derived message analytics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics",
	Long: `Show the server-computed platform overview plus message analytics
derived from the stored feed: hourly frequency over the last 24 hours,
the busiest topics, and the numeric value trend.

With --connection the analytics are scoped to one connection's traffic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}

		stats, err := client.SystemStats(cmd.Context())
		if err != nil {
			return err
		}

		msgs, err := client.ListMessages(cmd.Context())
		if err != nil {
			return err
		}

		scope := analytics.ScopeAll()
		if statsConnection != "" {
			scope = analytics.ScopeConnection(statsConnection)
		}
		view := analytics.AggregateView{
			MessageFrequency:  analytics.Frequency(msgs, scope, time.Now()),
			TopicDistribution: analytics.TopicDistribution(msgs, scope, cfg.Stats.TopTopics),
			ValueTrend:        analytics.ValueTrend(msgs, scope, cfg.Stats.TrendLength),
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]interface{}{
				"system":    stats,
				"analytics": view,
			})
		}

		fmt.Printf("Users:        %d\n", stats.TotalUsers)
		fmt.Printf("Connections:  %d (%d active)\n", stats.TotalConnections, stats.ActiveConnections)
		fmt.Printf("Messages:     %d\n", stats.TotalMessages)
		fmt.Printf("Rate:         %.1f msg/min\n", stats.MessagesPerMinute)
		fmt.Println()

		counts := make([]float64, len(view.MessageFrequency))
		for i, b := range view.MessageFrequency {
			counts[i] = float64(b.Count)
		}
		fmt.Println("Frequency (24h):")
		fmt.Printf("  %s\n\n", ui.RenderSparkline(counts, len(counts), ui.ColorInfo))

		fmt.Println("Top topics:")
		if len(view.TopicDistribution) == 0 {
			fmt.Println("  (no traffic)")
		} else {
			maxCount := view.TopicDistribution[0].Count
			for _, tc := range view.TopicDistribution {
				fmt.Printf("  %s\n", ui.RenderBar(tc.Topic, tc.Count, maxCount, 20, 28, ui.ColorInfo))
			}
		}
		fmt.Println()

		fmt.Println("Value trend:")
		if view.ValueTrend == nil {
			fmt.Println("  (no numeric telemetry)")
		} else {
			values := make([]float64, len(view.ValueTrend))
			for i, p := range view.ValueTrend {
				values[i] = p.Value
			}
			last := view.ValueTrend[len(view.ValueTrend)-1]
			fmt.Printf("  %s  latest %.2f\n", ui.RenderSparkline(values, cfg.Stats.TrendLength, ui.ColorInfo), last.Value)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsConnection, "connection", "", "scope analytics to one connection")
	rootCmd.AddCommand(statsCmd)
}
