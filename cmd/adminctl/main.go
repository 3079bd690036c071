// Command adminctl performs operator tasks against the user ledger:
// bootstrapping admins, fixing roles and correcting balances.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/microtask/microtask_backend/config"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
	"github.com/microtask/microtask_backend/services"
)

// operator is the identity every adminctl call acts as
var operator = models.Identity{Email: "adminctl@localhost", Role: models.RoleAdmin}

// opener yields the store bundle plus a cleanup func
type opener func(ctx context.Context) (repositories.Stores, func(), error)

func main() {
	if err := newRootCmd(openMongo, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func openMongo(ctx context.Context) (repositories.Stores, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return repositories.Stores{}, nil, err
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	client, err := config.ConnectDB(cfg, logger)
	if err != nil {
		return repositories.Stores{}, nil, err
	}
	return repositories.NewMongoStores(client.Database(cfg.DBName)), func() {
		_ = client.Disconnect(context.Background())
	}, nil
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	var (
		users   *services.UserService
		cleanup func()
	)

	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Operator tooling for the microtask ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			stores, done, err := open(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			cleanup = done
			logger := logrus.New()
			logger.SetOutput(io.Discard)
			users = services.NewUserService(stores.Users, logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if cleanup != nil {
				cleanup()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an Admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			user, err := users.CreateAdmin(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "created admin %s (%s)\n", user.Email, user.ID.Hex())
			return nil
		},
	}
	createAdminCmd.Flags().String("email", "", "Admin email address")
	createAdminCmd.Flags().String("name", "Admin", "Display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	root.AddCommand(createAdminCmd)

	root.AddCommand(&cobra.Command{
		Use:   "set-role EMAIL ROLE",
		Short: "Change a user's role (Worker, Buyer or Admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := users.UpdateRole(cmd.Context(), operator, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s is now %s\n", args[0], args[1])
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "set-coins EMAIL COINS",
		Short: "Overwrite a user's coin balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coins, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("coins must be an integer: %w", err)
			}
			if err := users.SetCoins(cmd.Context(), operator, args[0], coins); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s balance set to %d\n", args[0], coins)
			return nil
		},
	})

	listCmd := &cobra.Command{
		Use:   "list-users",
		Short: "List users, optionally by role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, _ := cmd.Flags().GetString("role")
			list, err := users.ListUsers(cmd.Context(), operator, models.UserFilter{Role: role})
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tCOINS")
			for _, u := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", u.Email, u.Name, u.Role, u.Coins)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().String("role", "", "Only list users with this role")
	root.AddCommand(listCmd)

	return root
}
