package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medication-adherence/internal/adapters/storage/postgres"
	"medication-adherence/internal/domain/interactions"
)

func migrateCmd() *cobra.Command {
	var seedRules bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el esquema embebido y carga la tabla de interacciones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required for migrate")
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := postgres.Migrate(ctx, db)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", n)

			if !seedRules {
				return nil
			}
			rules, err := interactions.LoadRulesFile(cfg.InteractionRulesFile)
			if err != nil {
				return err
			}
			seeded, err := postgres.NewRulesRepo(db).Upsert(ctx, rules)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d interaction rule(s).\n", seeded)
			return nil
		},
	}
	cmd.Flags().BoolVar(&seedRules, "seed-rules", true, "cargar las reglas de interacción en interaction_rules")
	return cmd
}
