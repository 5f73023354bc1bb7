package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"medication-adherence/internal/adapters/storage/postgres"
	"medication-adherence/internal/app"
)

func serveCmd() *cobra.Command {
	var (
		noSweep     bool
		autoMigrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP y el sweep de tomas vencidas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if autoMigrate && a.DB != nil {
				n, err := postgres.Migrate(ctx, a.DB)
				if err != nil {
					return err
				}
				log.Info("migrations applied", map[string]any{"count": n})
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           a.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      15 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.Env, "auth_mode": cfg.AuthMode})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				log.Info("shutting down", nil)
				return srv.Shutdown(shutdownCtx)
			})
			if !noSweep {
				g.Go(func() error {
					return a.Sweeper().Run(gctx)
				})
			}

			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "no correr el sweep periódico de tomas vencidas")
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "aplicar migraciones pendientes al arrancar (solo Postgres)")
	return cmd
}
