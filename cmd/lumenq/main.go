// Command lumenq runs the streetlight control service.
//
// Subcommands:
//
//	serve    HTTP API plus the background brightness worker
//	migrate  apply pending PostgreSQL migrations and exit
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "lumenq",
		Short: "Streetlight control API with a background job queue",
		// Errors are reported through slog below
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML config file (default configs/config.<CONFIG_ENV>.yaml)")

	root.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		slog.Error("Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
