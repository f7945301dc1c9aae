package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shemshallah/quantum-foam-rng/pkg/jobs"
)

// NewGenerateCommand constructs the 'generate' command for one-shot key
// generation without the server.
func NewGenerateCommand() *cobra.Command {
	var (
		angle  float64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one key and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadedConfig
			if !cmd.Flags().Changed("angle") {
				angle = cfg.Entropy.AngleDeg
			}

			client, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			manager := jobs.NewManager(client, cfg.Entropy)

			log.Info().
				Str("command", "generate").
				Float64("angle_deg", angle).
				Msg("Generating key")

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Entropy.JobTimeout)
			defer cancel()

			result, err := manager.Generate(ctx, angle)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "key:      %s\n", result.KeyHex)
			fmt.Fprintf(out, "sigma:    %.4f\n", result.Sigma)
			fmt.Fprintf(out, "quality:  %s", result.Quality)
			if result.QualityReason != "" {
				fmt.Fprintf(out, " (%s)", result.QualityReason)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "shots:    %d across %d bases\n", result.TotalShots, result.BasesUsed)
			fmt.Fprintf(out, "elapsed:  %.2fs\n", result.GenerationTimeSeconds)
			return nil
		},
	}

	cmd.Flags().Float64Var(&angle, "angle", 45, "Entanglement angle in degrees [0, 90]")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")

	return cmd
}
