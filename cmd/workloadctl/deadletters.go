package main

import (
	"github.com/spf13/cobra"

	"example.com/trainerworkload/internal/app"
	"example.com/trainerworkload/internal/deadletter"
)

func newDeadLettersCommand(g *globals) *cobra.Command {
	var (
		class string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "deadletters",
		Short: "List dead-lettered messages recorded by the dead-letter monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := app.OpenPostgres(cmd.Context(), g.cfg.PostgresURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			entries, err := deadletter.NewPostgresRecorder(pool).List(cmd.Context(), class, limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []deadletter.Entry{}
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&class, "class", "", "only list one failure class (validation, infrastructure, unexpected, processing)")
	flags.IntVar(&limit, "limit", deadletter.DefaultListLimit, "maximum entries to list")
	return cmd
}
