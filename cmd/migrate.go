package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-assessment/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the relational schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		return app.Migrate(cmd.Context(), log, cfg)
	},
}
