package cli

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mqdash/mqdash/internal/api"
	"github.com/mqdash/mqdash/internal/cache"
	"github.com/mqdash/mqdash/internal/errors"
	"github.com/mqdash/mqdash/internal/mutate"
	"github.com/mqdash/mqdash/internal/ui"
)

var (
	userCreateEmail    string
	userCreateRole     string
	userCreatePassword string
	userUpdateUsername string
	userUpdateEmail    string
	userUpdateRole     string
	userDeleteForce    bool
	usersRoleFilter    string
)

// usersCmd groups user management subcommands.
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage platform users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		users, err := client.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if usersRoleFilter != "" {
			filtered := users[:0]
			for _, u := range users {
				if string(u.Role) == usersRoleFilter {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, users)
		}

		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}

		rows := make([][]string, len(users))
		for i, u := range users {
			rows[i] = []string{u.ID, u.Username, string(u.Role), u.Email}
		}
		fmt.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "ID", Width: 24},
			{Title: "USERNAME", Width: 20},
			{Title: "ROLE", Width: 8},
			{Title: "EMAIL", Width: 30},
		}, rows))
		return nil
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Long: `Create a platform user.

The password is read from --password, or prompted for interactively
(hidden input) when the flag is omitted.

Examples:
  mqdash users create alice --role admin --email alice@example.com
  mqdash users create sensor-bot --role viewer --password "$BOT_PASSWORD"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		password := userCreatePassword
		if password == "" {
			password, err = promptPassword("Password for " + args[0] + ": ")
			if err != nil {
				return err
			}
		}

		coord := mutate.NewCoordinator(client, cache.NewStore(), nil)
		user, err := coord.CreateUser(cmd.Context(), api.CreateUserRequest{
			Username: args[0],
			Password: password,
			Email:    userCreateEmail,
			Role:     api.Role(userCreateRole),
		})
		if err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, user)
		}
		fmt.Printf("%s Created user %s (%s)\n", ui.SymbolSuccess, user.Username, user.ID)
		return nil
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user",
	Long: `Apply a partial update to a user. Only the provided flags change;
everything else is left as-is by the server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		coord := mutate.NewCoordinator(client, cache.NewStore(), nil)
		user, err := coord.UpdateUser(cmd.Context(), args[0], api.UpdateUserRequest{
			Username: userUpdateUsername,
			Email:    userUpdateEmail,
			Role:     api.Role(userUpdateRole),
		})
		if err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, user)
		}
		fmt.Printf("%s Updated user %s\n", ui.SymbolSuccess, user.ID)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Long: `Delete a user. The server cascades the delete to the user's broker
connections and their messages.

Deleting the last remaining admin is refused.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		// Prime the cache so the last-admin check can run before the network
		store := cache.NewStore()
		store.Register(cache.KeyUsers, func(ctx context.Context) (interface{}, error) {
			return client.ListUsers(ctx)
		})
		store.Refresh(cmd.Context(), cache.KeyUsers)

		if !userDeleteForce && !machineMode {
			confirmed, err := confirmAction(fmt.Sprintf("Delete user %s?", args[0]),
				"Their connections and messages are deleted too. This cannot be undone.")
			if err != nil || !confirmed {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		coord := mutate.NewCoordinator(client, store, nil)
		if err := coord.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(os.Stdout, map[string]string{"deleted": args[0]})
		}
		fmt.Printf("%s Deleted user %s\n", ui.SymbolSuccess, args[0])
		return nil
	},
}

// promptPassword reads a password without echo. Fails when stdin is not a
// terminal so scripts use --password instead of hanging.
func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New(errors.ErrValidation,
			"No password provided and stdin is not a terminal",
			"Pass the password with --password")
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "Failed to read password")
	}
	return string(raw), nil
}

// confirmAction shows an interactive yes/no prompt for destructive commands.
func confirmAction(title, description string) (bool, error) {
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirm, nil
}

func init() {
	usersListCmd.Flags().StringVar(&usersRoleFilter, "role", "", "filter by role (user, admin, viewer)")

	usersCreateCmd.Flags().StringVar(&userCreateEmail, "email", "", "email address")
	usersCreateCmd.Flags().StringVar(&userCreateRole, "role", "user", "role (user, admin, viewer)")
	usersCreateCmd.Flags().StringVar(&userCreatePassword, "password", "", "password (prompted when omitted)")

	usersUpdateCmd.Flags().StringVar(&userUpdateUsername, "username", "", "new username")
	usersUpdateCmd.Flags().StringVar(&userUpdateEmail, "email", "", "new email address")
	usersUpdateCmd.Flags().StringVar(&userUpdateRole, "role", "", "new role (user, admin, viewer)")

	usersDeleteCmd.Flags().BoolVarP(&userDeleteForce, "force", "f", false, "skip the confirmation prompt")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}
