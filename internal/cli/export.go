package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mqdash/mqdash/internal/export"
	"github.com/mqdash/mqdash/internal/ui"
)

var exportOutput string

// exportCmd writes a sanitized snapshot of the platform data to a file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export platform data to JSON",
	Long: `Export users, connections, and messages as a single JSON document.
Password hashes are stripped before writing.

The file name defaults to platform-export-<date>.json in the current
directory; use --output to choose a path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		users, err := client.ListUsers(ctx)
		if err != nil {
			return err
		}
		conns, err := client.ListConnections(ctx)
		if err != nil {
			return err
		}
		msgs, err := client.ListMessages(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		doc := export.Build(users, conns, msgs, now)

		path := exportOutput
		if path == "" {
			path = export.Filename("platform", now)
		}
		if err := export.WriteFile(path, doc); err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]interface{}{
				"path":        path,
				"users":       len(doc.Users),
				"connections": len(doc.Connections),
				"messages":    len(doc.Messages),
			})
		}
		fmt.Printf("%s Exported %d users, %d connections, %d messages to %s\n",
			ui.SymbolSuccess, len(doc.Users), len(doc.Connections), len(doc.Messages), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file path")
	rootCmd.AddCommand(exportCmd)
}
