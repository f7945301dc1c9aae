package entropy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shemshallah/quantum-foam-rng/pkg/provider"
)

// Dispatcher fans measurement requests out to the provider, one per basis,
// and joins on all nine. Any basis that exhausts its attempts fails the
// whole dispatch; there is no partial-basis result.
type Dispatcher struct {
	client   provider.Client
	timeout  time.Duration
	attempts int
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. timeout bounds each individual
// request attempt; attempts is the per-basis budget (minimum 1).
func NewDispatcher(client provider.Client, timeout time.Duration, attempts int) *Dispatcher {
	if attempts < 1 {
		attempts = 1
	}
	return &Dispatcher{
		client:   client,
		timeout:  timeout,
		attempts: attempts,
		logger:   log.With().Str("component", "entropy.dispatcher").Logger(),
	}
}

// Dispatch runs the nine basis measurements concurrently and returns the
// per-basis results keyed by label. On failure it returns a
// *MeasurementProviderError naming the bases that exhausted their attempts,
// or the context error if the caller's context ended first.
func (d *Dispatcher) Dispatch(ctx context.Context, angleDeg float64, shots int) (map[string]BasisResult, error) {
	g, gctx := errgroup.WithContext(ctx)

	results := make([]BasisResult, len(Bases))
	failures := make([]error, len(Bases))

	for i, basis := range Bases {
		g.Go(func() error {
			spec := provider.MeasurementSpec{AngleDeg: angleDeg, Basis: basis, Shots: shots}
			counts, err := d.measureWithRetry(gctx, spec)
			if err != nil {
				failures[i] = err
				return err
			}
			results[i] = BasisResult{
				Basis:       basis,
				Counts:      counts,
				Expectation: Expectation(counts, shots),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// The caller's context ending (job timeout, shutdown) is not a
		// provider failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var failed []string
		var cause error
		for i, ferr := range failures {
			// Siblings canceled by the group after the first hard
			// failure did not themselves fail.
			if ferr == nil || errors.Is(ferr, context.Canceled) {
				continue
			}
			failed = append(failed, Bases[i])
			if cause == nil {
				cause = ferr
			}
		}
		if cause == nil {
			cause = err
			failed = append(failed, "unknown")
		}
		return nil, &MeasurementProviderError{Bases: failed, Err: cause}
	}

	out := make(map[string]BasisResult, len(Bases))
	for _, r := range results {
		out[r.Basis] = r
	}

	d.logger.Debug().
		Float64("angle_deg", angleDeg).
		Int("shots", shots).
		Int("bases", len(out)).
		Msg("All basis measurements collected")

	return out, nil
}

// measureWithRetry runs one basis measurement with a per-attempt timeout,
// retrying transient failures up to the attempt budget. A response with
// malformed counts is treated like any other attempt failure.
func (d *Dispatcher) measureWithRetry(ctx context.Context, spec provider.MeasurementSpec) (provider.OutcomeCounts, error) {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		counts, err := d.client.Measure(attemptCtx, spec)
		cancel()

		if err == nil {
			if verr := counts.Validate(spec.Shots); verr != nil {
				err = fmt.Errorf("provider response for basis %s: %w", spec.Basis, verr)
			} else {
				return counts, nil
			}
		}
		lastErr = err

		// Don't burn attempts once the dispatch itself is over.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt < d.attempts {
			d.logger.Warn().
				Str("basis", spec.Basis).
				Int("attempt", attempt).
				Err(err).
				Msg("Basis measurement failed, retrying")
		}
	}
	return nil, fmt.Errorf("basis %s failed after %d attempts: %w", spec.Basis, d.attempts, lastErr)
}
