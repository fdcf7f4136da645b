package main

import (
	"time"

	"github.com/spf13/cobra"

	"example.com/trainerworkload/internal/auth"
)

func newTokenCommand(g *globals) *cobra.Command {
	var (
		grant auth.Grant
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API, signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.Issue(auth.Config{Secret: g.cfg.JWTSecret, Issuer: g.cfg.JWTIssuer}, grant, ttl)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(token + "\n"))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&grant.Subject, "subject", "workloadctl", "token subject")
	flags.StringSliceVar(&grant.Scopes, "scope", []string{auth.ScopeWorkloadRead, auth.ScopeWorkloadWrite}, "granted scopes")
	flags.StringSliceVar(&grant.Trainers, "trainer", nil, "restrict the token to these trainer usernames")
	flags.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
