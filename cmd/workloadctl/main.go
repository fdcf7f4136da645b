package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"example.com/trainerworkload/internal/app"
	"example.com/trainerworkload/internal/config"
	"example.com/trainerworkload/internal/logging"
)

var exampleUsage = strings.TrimSpace(`
  workloadctl publish --username alice --first-name Alice --last-name Smith --date 2024-03-15 --duration 60 --action ADD
  workloadctl query --username alice --year 2024 --month 3
  workloadctl token --subject ops --scope workload:read --ttl 1h
  workloadctl deadletters --class validation --limit 20
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// globals holds the connection settings shared by every subcommand.
type globals struct {
	cfg     config.Config
	brokers []string
}

func newRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "workloadctl",
		Short:         "Operate the trainer workload service over Kafka",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// Flags win over file and environment.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if changed["brokers"] {
				cfg.KafkaBrokers = g.brokers
			}
			g.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&g.brokers, "brokers", nil, "Kafka brokers (overrides KAFKA_BROKERS)")

	root.AddCommand(
		newPublishCommand(g),
		newQueryCommand(g),
		newTokenCommand(g),
		newDeadLettersCommand(g),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger := app.NewLogger(config.Defaults(), "workloadctl")
		logger.Error("workloadctl", logging.Err(err))
		os.Exit(1)
	}
}
