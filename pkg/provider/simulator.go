package provider

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Simulator is an in-process measurement provider. It computes the exact
// outcome distribution for an entangled two-qubit pair prepared at the
// requested angle and measured in the requested basis, then samples shot
// outcomes from that distribution.
//
// The prepared state is cos(θ/2)|00⟩ + sin(θ/2)|11⟩. Measuring in the X or
// Y basis is realized as a basis-change rotation on the corresponding qubit
// followed by a computational-basis measurement.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator. A non-zero seed makes runs reproducible;
// seed 0 derives one from the current time.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
	}
}

// Measure samples shot outcomes from the exact distribution for the spec.
func (s *Simulator) Measure(ctx context.Context, spec MeasurementSpec) (OutcomeCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Shots <= 0 {
		return nil, fmt.Errorf("shots must be positive, got %d", spec.Shots)
	}

	probs, err := OutcomeDistribution(spec.AngleDeg, spec.Basis)
	if err != nil {
		return nil, err
	}

	counts := OutcomeCounts{Outcome00: 0, Outcome01: 0, Outcome10: 0, Outcome11: 0}

	s.mu.Lock()
	for range spec.Shots {
		r := s.rng.Float64()
		acc := 0.0
		picked := Outcome11 // tail bucket absorbs float rounding
		for i, outcome := range Outcomes {
			acc += probs[i]
			if r < acc {
				picked = outcome
				break
			}
		}
		counts[picked]++
	}
	s.mu.Unlock()

	log.Trace().
		Str("component", "provider.simulator").
		Str("basis", spec.Basis).
		Int("shots", spec.Shots).
		Msg("Sampled measurement outcomes")

	return counts, nil
}

// OutcomeDistribution returns the probabilities of the four outcomes, in
// Outcomes order, for the entangled pair prepared at angleDeg and measured
// in the given two-letter basis (each letter one of X, Y, Z).
func OutcomeDistribution(angleDeg float64, basis string) ([4]float64, error) {
	var probs [4]float64
	if len(basis) != 2 {
		return probs, fmt.Errorf("invalid basis %q", basis)
	}

	uA, err := basisRotation(basis[0])
	if err != nil {
		return probs, fmt.Errorf("basis %q: %w", basis, err)
	}
	uB, err := basisRotation(basis[1])
	if err != nil {
		return probs, fmt.Errorf("basis %q: %w", basis, err)
	}

	// Amplitudes indexed by 2*a + b for outcome "ab".
	theta := angleDeg * math.Pi / 180
	var amp [4]complex128
	amp[0] = complex(math.Cos(theta/2), 0) // |00⟩
	amp[3] = complex(math.Sin(theta/2), 0) // |11⟩

	// Apply the per-qubit basis-change rotations.
	var rotated [4]complex128
	for aOut := range 2 {
		for bOut := range 2 {
			var sum complex128
			for aIn := range 2 {
				for bIn := range 2 {
					sum += uA[aOut][aIn] * uB[bOut][bIn] * amp[2*aIn+bIn]
				}
			}
			rotated[2*aOut+bOut] = sum
		}
	}

	for i, a := range rotated {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs, nil
}

// basisRotation maps a measurement axis to the single-qubit rotation that
// brings it onto the computational (Z) axis: Ry(-π/2) for X, Rx(π/2) for Y,
// identity for Z.
func basisRotation(axis byte) ([2][2]complex128, error) {
	c := complex(math.Sqrt2/2, 0)
	switch axis {
	case 'Z':
		return [2][2]complex128{{1, 0}, {0, 1}}, nil
	case 'X':
		// Ry(-π/2)
		return [2][2]complex128{{c, c}, {-c, c}}, nil
	case 'Y':
		// Rx(π/2)
		ci := complex(0, -math.Sqrt2/2)
		return [2][2]complex128{{c, ci}, {ci, c}}, nil
	default:
		return [2][2]complex128{}, fmt.Errorf("unknown measurement axis %q", string(axis))
	}
}
