package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goliatone/go-campus"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

func seedAdminCommand() *cobra.Command {
	var (
		username string
		password string
		email    string
	)

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap administrator if it does not exist",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			logger := commonRun(cfg)

			if username == "" {
				username = cfg.BootstrapAdminUsername
			}
			if password == "" {
				password = cfg.BootstrapAdminPassword
			}

			repo, closeDB, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			defer closeDB()

			hasher := campus.NewHasher(cfg.BcryptCost)
			user, created, err := campus.SeedAdmin(cmd.Context(), repo, hasher, campus.SeedAdminMessage{
				Username: username,
				Password: password,
				Email:    email,
			})
			if err != nil {
				slog.Error("seed admin failed", "error", err)
				closeDB()
				os.Exit(1)
			}

			fmt.Println(print.MaybePrettyJSON(map[string]any{
				"created":  created,
				"id":       user.ID.String(),
				"username": user.Username,
				"is_admin": user.IsAdmin,
			}))
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username (defaults to bootstrap_admin_username)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (defaults to bootstrap_admin_password)")
	cmd.Flags().StringVar(&email, "email", "", "admin email")

	return cmd
}
