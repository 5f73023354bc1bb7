package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medication-adherence/internal/config"
	"medication-adherence/internal/platform/logger"
)

var envFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	serve := serveCmd()

	root := &cobra.Command{
		Use:           "medtrack",
		Short:         "Medication adherence API",
		Long:          "Registro de medicaciones, tomas programadas, adherencia, interacciones y dashboard.\nSin subcomando arranca el servidor HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "archivo .env opcional")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(migrateCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(tokenCmd())
	return root
}

// loadConfig carga y valida la configuración y arma el logger.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	return cfg, log, nil
}

func syncLogger(log logger.Logger) {
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
