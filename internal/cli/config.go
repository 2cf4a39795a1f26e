package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/config"
	"github.com/mqdash/mqdash/internal/errors"
)

var configInitForce bool

// configCmd groups config file operations.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the mqdash config file",
}

// configInitCmd writes a starter .mqdash.yaml in the current directory.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a starter .mqdash.yaml in the current directory.

The generated file contains the default refresh, stats, and output settings
so they are easy to adjust. Set the API token via the MQDASH_TOKEN
environment variable rather than committing it to the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverFlag == "" {
			return errors.NewValidation("server",
				"Server URL is required (use --server)")
		}

		path := config.ConfigFileName
		cfg := config.StarterConfig(serverFlag)
		if err := config.WriteFile(path, cfg, configInitForce); err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]string{"path": path})
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

// configPathCmd prints which config file would be used.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(configFlag)
		if err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]string{"path": path})
		}
		if path == "" {
			fmt.Println("No config file found (using built-in defaults)")
			return nil
		}
		fmt.Println(path)
		return nil
	},
}

// configShowCmd prints the effective config after env and flag overrides.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Token values are never printed.
		shown := *cfg
		if shown.Server.Token != "" {
			shown.Server.Token = "(set)"
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, shown)
		}

		data, err := config.Marshal(&shown)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
