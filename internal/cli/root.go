package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/config"
	"github.com/mqdash/mqdash/internal/ui"
)

// Persistent flags shared by all commands.
var (
	configFlag string
	serverFlag string
	tokenFlag  string
)

// rootCmd is the base command for mqdash.
var rootCmd = &cobra.Command{
	Use:   "mqdash",
	Short: "Operator dashboard for an MQTT IoT platform",
	Long: `mqdash is a terminal dashboard and admin CLI for an MQTT IoT platform.

It talks to the platform's admin API: manage users, open and close broker
connections, watch message traffic live, and export platform data.

Run 'mqdash dashboard' for the live TUI, or use the subcommands for
one-shot operations and scripting (add --json for machine output).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and renders any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if machineMode {
			_ = WriteJSONFromError(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "platform API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "machine-readable JSON output")
}

// loadConfig resolves the effective config from file, environment, and flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}
	if serverFlag != "" {
		cfg.Server.URL = serverFlag
	}
	if tokenFlag != "" {
		cfg.Server.Token = tokenFlag
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	ui.ApplyColorMode(cfg.Output.Color)
	return cfg, nil
}

// newClient builds an API client from the effective config.
func newClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token)
	client.SetTimeout(cfg.Server.Timeout)
	return client, cfg, nil
}
