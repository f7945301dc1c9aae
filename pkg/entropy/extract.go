package entropy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shemshallah/quantum-foam-rng/pkg/provider"
)

// QualityReasonFallback marks a key produced by the deterministic fallback
// hash instead of the certified primary path.
const QualityReasonFallback = "fallback-hash"

// Key is the output of one extraction run.
type Key struct {
	// Bytes is the packed output, always exactly TargetBits/8 long.
	Bytes []byte
	// Quality is QualityCertified or QualityDegraded.
	Quality string
	// QualityReason is empty for certified keys and names the degradation
	// cause otherwise.
	QualityReason string
	// RawBits counts the raw outcome bits collected across all bases.
	RawBits int
	// DebiasedBits counts the bits that survived debiasing of the
	// reference basis.
	DebiasedBits int
}

// RandomnessScore returns the fraction of one-bits in the key; 0.5 is ideal.
func (k *Key) RandomnessScore() float64 {
	if len(k.Bytes) == 0 {
		return 0
	}
	ones := 0
	for _, b := range k.Bytes {
		ones += bits.OnesCount8(b)
	}
	return float64(ones) / float64(len(k.Bytes)*8)
}

// Extractor turns a complete basis-result set into a fixed-length key.
//
// Primary path (certified runs): debias the reference basis's outcome pairs
// with the von Neumann rule, then compress the debiased stream through a
// Toeplitz universal hash, honoring the leftover-hash bound
// m <= k - 2*log2(1/ε). Fallback path (degraded runs, or primary shortfall):
// SHA-256 over all raw bits in counter mode.
type Extractor struct {
	targetBits     int
	epsilonExp     int
	sigmaThreshold float64
	logger         zerolog.Logger
}

// NewExtractor creates an extractor producing targetBits-bit keys with
// statistical-distance tolerance ε = 2^-epsilonExp and the given σ quality
// threshold. targetBits must be a positive multiple of 8.
func NewExtractor(targetBits, epsilonExp int, sigmaThreshold float64) *Extractor {
	return &Extractor{
		targetBits:     targetBits,
		epsilonExp:     epsilonExp,
		sigmaThreshold: sigmaThreshold,
		logger:         log.With().Str("component", "entropy.extractor").Logger(),
	}
}

// Extract produces the output key for one job. sigma is the diversity score
// from analysis; it selects the path and dampens the min-entropy estimate.
// The only terminal failure is an empty raw input, which cannot happen for
// a validated result set with positive shots.
func (e *Extractor) Extract(results map[string]BasisResult, sigma float64) (*Key, error) {
	raw := rawOutcomeBits(results)
	if len(raw) == 0 {
		return nil, &InternalError{Msg: "no raw bits collected, nothing to extract"}
	}

	debiased := DebiasPairs(referencePairs(results[ReferenceBasis]))

	if QualityFor(sigma, e.sigmaThreshold) == QualityCertified {
		keyBytes, err := e.extractPrimary(debiased, sigma)
		if err == nil {
			return &Key{
				Bytes:        keyBytes,
				Quality:      QualityCertified,
				RawBits:      len(raw),
				DebiasedBits: len(debiased),
			}, nil
		}
		var shortfall *InsufficientEntropyError
		if !errors.As(err, &shortfall) {
			return nil, err
		}
		e.logger.Debug().
			Int("need", shortfall.Need).
			Int("have", shortfall.Have).
			Str("stage", shortfall.Stage).
			Msg("Primary extraction short on entropy, using fallback")
	}

	return &Key{
		Bytes:         fallbackHash(raw, e.targetBits),
		Quality:       QualityDegraded,
		QualityReason: QualityReasonFallback,
		RawBits:       len(raw),
		DebiasedBits:  len(debiased),
	}, nil
}

// extractPrimary runs the universal-hash stage over the debiased stream.
func (e *Extractor) extractPrimary(debiased []uint8, sigma float64) ([]byte, error) {
	if len(debiased) == 0 {
		return nil, &InsufficientEntropyError{Need: e.targetBits, Have: 0, Stage: "debias"}
	}

	k := minEntropyEstimate(debiased, sigma, e.sigmaThreshold)
	// Leftover-hash bound: m <= k - 2*log2(1/ε).
	if e.targetBits > k-2*e.epsilonExp {
		return nil, &InsufficientEntropyError{
			Need:  e.targetBits + 2*e.epsilonExp,
			Have:  k,
			Stage: "universal-hash",
		}
	}

	seed := make([]uint8, len(debiased)+e.targetBits-1)
	seedBytes := make([]byte, (len(seed)+7)/8)
	if _, err := rand.Read(seedBytes); err != nil {
		return nil, fmt.Errorf("draw hash seed: %w", err)
	}
	for i := range seed {
		seed[i] = (seedBytes[i/8] >> (7 - i%8)) & 1
	}

	return packBits(ToeplitzHash(seed, debiased, e.targetBits)), nil
}

// DebiasPairs applies the von Neumann rule to a sequence of bit pairs:
// (0,1) emits 0, (1,0) emits 1, equal pairs emit nothing.
func DebiasPairs(pairs [][2]uint8) []uint8 {
	out := make([]uint8, 0, len(pairs)/4)
	for _, p := range pairs {
		switch {
		case p[0] == 0 && p[1] == 1:
			out = append(out, 0)
		case p[0] == 1 && p[1] == 0:
			out = append(out, 1)
		}
	}
	return out
}

// ToeplitzHash multiplies the input bit vector by the m×n Toeplitz matrix
// defined by seed (length n+m-1, one bit per diagonal) over GF(2). The same
// seed and input always produce the same output.
func ToeplitzHash(seed, input []uint8, m int) []uint8 {
	n := len(input)
	out := make([]uint8, m)
	for j := range m {
		var acc uint8
		for i := range n {
			// Row j, column i sits on diagonal j-i+n-1.
			acc ^= seed[j-i+n-1] & input[i]
		}
		out[j] = acc
	}
	return out
}

// minEntropyEstimate bounds the extractable min-entropy of the debiased
// stream: per-bit min-entropy from the observed one-bit bias, scaled by
// length, damped by how far σ sits below the certification threshold.
func minEntropyEstimate(bitstream []uint8, sigma, threshold float64) int {
	ones := 0
	for _, b := range bitstream {
		ones += int(b)
	}
	p := float64(ones) / float64(len(bitstream))
	perBit := -math.Log2(math.Max(p, 1-p))
	if math.IsInf(perBit, 0) || math.IsNaN(perBit) {
		return 0
	}

	damp := 1.0
	if threshold > 0 && sigma < threshold {
		damp = sigma / threshold
	}
	return int(math.Floor(float64(len(bitstream)) * perBit * damp))
}

// fallbackHash compresses the raw bits to targetBits via SHA-256 in counter
// mode. Deterministic for fixed input.
func fallbackHash(raw []uint8, targetBits int) []byte {
	material := packBits(raw)
	out := make([]byte, 0, targetBits/8)
	var counter uint32
	for len(out) < targetBits/8 {
		h := sha256.New()
		h.Write(material)
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], counter)
		h.Write(ctr[:])
		out = append(out, h.Sum(nil)...)
		counter++
	}
	return out[:targetBits/8]
}

// rawOutcomeBits flattens every basis's outcome counts into a bit sequence,
// two bits per shot, in canonical basis and outcome order.
func rawOutcomeBits(results map[string]BasisResult) []uint8 {
	var out []uint8
	for _, basis := range Bases {
		result, ok := results[basis]
		if !ok {
			continue
		}
		for _, outcome := range provider.Outcomes {
			a, b := outcomeBits(outcome)
			for range result.Counts[outcome] {
				out = append(out, a, b)
			}
		}
	}
	return out
}

// referencePairs expands the reference basis's counts into per-shot bit
// pairs for the debiasing stage.
func referencePairs(result BasisResult) [][2]uint8 {
	var pairs [][2]uint8
	for _, outcome := range provider.Outcomes {
		a, b := outcomeBits(outcome)
		for range result.Counts[outcome] {
			pairs = append(pairs, [2]uint8{a, b})
		}
	}
	return pairs
}

func outcomeBits(outcome string) (uint8, uint8) {
	return outcome[0] - '0', outcome[1] - '0'
}

// packBits packs a bit slice into bytes, MSB first. Trailing bits of a
// partial final byte are zero-padded.
func packBits(bitstream []uint8) []byte {
	out := make([]byte, (len(bitstream)+7)/8)
	for i, b := range bitstream {
		out[i/8] |= (b & 1) << (7 - i%8)
	}
	return out
}
