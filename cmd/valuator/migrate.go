package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/position-valuation/internal/config"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cfg.Database.Migrations); err != nil {
				return err
			}
			log.Info().Str("dir", cfg.Database.Migrations).Msg("migrations applied")
			return nil
		},
	}
}
