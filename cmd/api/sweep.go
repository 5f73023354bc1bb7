package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"medication-adherence/internal/app"
)

func sweepCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Marca como missed las tomas vencidas sin registro (una pasada)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			var n int
			if owner != "" {
				n, err = a.Ledger.SweepMissed(cmd.Context(), owner)
			} else {
				n, err = a.Ledger.SweepAll(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d dose(s) as missed.\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "limitar el sweep a un usuario")
	return cmd
}
