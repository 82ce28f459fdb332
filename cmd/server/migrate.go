package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jakekang28/GenAIHCI-sub001/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending postgres migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Driver != "postgres" {
			return errors.New("migrate only applies to the postgres store; sqlite creates its schema on open")
		}
		return migrations.Migrate(cfg.Store.PostgresURL)
	},
}
