package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"task-calendar/app/config"
)

func tokenCmd(load configLoader) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Issue a bearer token for a user (jwt auth mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.Mode != config.AuthJWT {
				return fmt.Errorf("tokens are issued by Firebase in %s mode", cfg.Auth.Mode)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			issuer, err := config.JWTVerifier(cfg)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	return cmd
}
