package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/khabaroff/apikeys-dashboard/src/middleware"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a dashboard session token",
		Long: `Sign a bearer token for the /keys management routes with DASHBOARD_JWT_SECRET.
Use it as "Authorization: Bearer <token>".`,
		Example: `  keyctl token --subject admin --ttl 1h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cfg.DashboardJWTSecret == "" {
				return fmt.Errorf("DASHBOARD_JWT_SECRET is not set")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			token, err := middleware.GenerateDashboardToken(cfg.DashboardJWTSecret, subject, email, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")

	return cmd
}
