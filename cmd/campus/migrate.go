package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			logger := commonRun(cfg)

			_, closeDB, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			closeDB()
			fmt.Println("database is up to date")
		},
	}
}
