package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/config"
	"github.com/mqdash/mqdash/internal/dashboard"
	"github.com/mqdash/mqdash/internal/mutate"
)

// resourceKeys maps refresh.overrides names to cache keys.
var resourceKeys = map[string]cache.Key{
	"users":       cache.KeyUsers,
	"connections": cache.KeyConnections,
	"messages":    cache.KeyMessages,
	"stats":       cache.KeySystemStats,
	"events":      cache.KeySecurityEvents,
}

// dashboardCmd starts the live TUI.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Start the live operator dashboard",
	Long: `Start the full-screen dashboard: platform overview with message
analytics, plus live user, connection, and message panels.

All panels poll the admin API on the configured refresh interval and
share one cache; nothing is fetched twice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		return dashboardCommand(client, cfg)
	},
}

// dashboardCommand wires the cache, scheduler, and coordinator and runs the
// Bubble Tea program.
func dashboardCommand(client *api.Client, cfg *config.Config) error {
	store := cache.NewStore()
	store.Register(cache.KeyUsers, func(ctx context.Context) (interface{}, error) {
		return client.ListUsers(ctx)
	})
	store.Register(cache.KeyConnections, func(ctx context.Context) (interface{}, error) {
		return client.ListConnections(ctx)
	})
	store.Register(cache.KeyMessages, func(ctx context.Context) (interface{}, error) {
		return client.ListMessages(ctx)
	})
	store.Register(cache.KeySystemStats, func(ctx context.Context) (interface{}, error) {
		stats, err := client.SystemStats(ctx)
		if err != nil {
			return nil, err
		}
		return *stats, nil
	})

	scheduler := cache.NewScheduler(cfg.Refresh.Interval)
	for name, d := range cfg.Refresh.Overrides {
		if key, ok := resourceKeys[name]; ok {
			scheduler.SetInterval(key, d)
		}
	}

	coord := mutate.NewCoordinator(client, store, scheduler)
	model := dashboard.NewModel(client, store, scheduler, coord, cfg.Stats.TopTopics, cfg.Stats.TrendLength)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
