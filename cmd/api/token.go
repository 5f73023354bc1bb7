package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwtauth "medication-adherence/internal/adapters/auth/jwt"
	"medication-adherence/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Firma un token de prueba con JWT_SECRET_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if cfg.JWTSecretKey == "" {
				return errors.New("JWT_SECRET_KEY is required")
			}

			v, err := jwtauth.NewVerifier(jwtauth.Config{
				Secret: []byte(cfg.JWTSecretKey),
				Issuer: cfg.JWTIssuer,
			})
			if err != nil {
				return err
			}
			tok, err := v.Issue(userID, email, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID de usuario (sub)")
	cmd.Flags().StringVar(&email, "email", "", "email opcional")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "vigencia del token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
