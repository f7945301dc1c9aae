package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shemshallah/quantum-foam-rng/pkg/jobs"
	"github.com/shemshallah/quantum-foam-rng/pkg/server/app"
)

// NewServeCommand constructs the 'serve' command running the job API server.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the entropy-generation job API server",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg := loadedConfig

	client, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	manager := jobs.NewManager(client, cfg.Entropy)

	serverApp, err := app.New(cmd.Context(), cfg, manager)
	if err != nil {
		return fmt.Errorf("assemble server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("command", "serve").
		Str("provider", cfg.Provider.Mode).
		Msg("Starting server")

	return serverApp.Run(ctx)
}
