package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shemshallah/quantum-foam-rng/pkg/config"
	"github.com/shemshallah/quantum-foam-rng/pkg/provider"
)

const cliExecutable = "foamrng"

// loadedConfig is populated by the root PersistentPreRunE and read by
// subcommands.
var loadedConfig config.Config

// NewCommand constructs the top-level foamrng CLI command, wiring global
// flags and configuration loading.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "foamrng generates near-uniform keys from quantum measurement statistics",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			loadedConfig = manager.Get()

			if loadedConfig.Log.Format != "json" {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}

			// Configure global log level based on verbosity flags
			// If explicit --verbose is set, show debug and above
			// Else use -v count: 0=>config level, 1=>Info, 2+=>Debug
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				switch {
				case verbosityCount == 1:
					zerolog.SetGlobalLevel(zerolog.InfoLevel)
				case verbosityCount >= 2:
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				default:
					level, err := zerolog.ParseLevel(loadedConfig.Log.Level)
					if err != nil {
						level = zerolog.ErrorLevel
					}
					zerolog.SetGlobalLevel(level)
				}
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewGenerateCommand())

	return cmd
}

// buildProvider selects the measurement provider from config.
func buildProvider(cfg config.Config) (provider.Client, error) {
	switch cfg.Provider.Mode {
	case "", "simulator":
		return provider.NewSimulator(cfg.Provider.Seed), nil
	case "http":
		if cfg.Provider.Endpoint == "" {
			return nil, errors.New("provider.endpoint is required in http mode")
		}
		return provider.NewHTTPClient(cfg.Provider.Endpoint, cfg.Entropy.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}
}
