package entropy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// sigmaClassicalFloor is the diversity score below which a certificate is
// rejected outright: a source this uniform is indistinguishable from a
// classical one.
const sigmaClassicalFloor = 0.03

// FoamSignature summarizes the spread of the nine expectation values.
type FoamSignature struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

// Certificate attests that a key was produced from a measurement run with
// the recorded correlation statistics. The fingerprint binds the key digest
// to the statistics and issue time.
type Certificate struct {
	EntropyHash string        `json:"entropy_hash"`
	Signature   FoamSignature `json:"foam_signature"`
	Sigma       float64       `json:"sigma"`
	IssuedAt    time.Time     `json:"issued_at"`
	Fingerprint string        `json:"fingerprint"`
}

// NewCertificate issues a certificate for the given key bytes and analysis.
func NewCertificate(keyBytes []byte, analysis Analysis) *Certificate {
	digest := sha256.Sum256(keyBytes)

	cert := &Certificate{
		EntropyHash: hex.EncodeToString(digest[:]),
		Signature:   signatureFor(analysis.Expectations),
		Sigma:       analysis.Sigma,
		IssuedAt:    time.Now().UTC().Truncate(time.Second),
	}
	cert.Fingerprint = fingerprint(cert)
	return cert
}

// VerifyCertificate recomputes the fingerprint and sanity-checks the
// recorded statistics. A tampered certificate or a near-zero σ fails.
func VerifyCertificate(cert *Certificate) error {
	if cert == nil {
		return fmt.Errorf("nil certificate")
	}
	if cert.Sigma < sigmaClassicalFloor {
		return fmt.Errorf("sigma %.4f below classical floor %.2f", cert.Sigma, sigmaClassicalFloor)
	}
	if want := fingerprint(cert); cert.Fingerprint != want {
		return fmt.Errorf("fingerprint mismatch")
	}
	return nil
}

func signatureFor(expectations map[string]float64) FoamSignature {
	var sig FoamSignature
	if len(expectations) == 0 {
		return sig
	}

	sig.Min = math.Inf(1)
	sig.Max = math.Inf(-1)
	for _, e := range expectations {
		sig.Mean += e
		sig.Min = math.Min(sig.Min, e)
		sig.Max = math.Max(sig.Max, e)
	}
	sig.Mean /= float64(len(expectations))

	var sumSq float64
	for _, e := range expectations {
		d := e - sig.Mean
		sumSq += d * d
	}
	sig.Std = math.Sqrt(sumSq / float64(len(expectations)))
	sig.Range = sig.Max - sig.Min
	return sig
}

// fingerprint hashes the certificate body over a canonical rendering, so
// any field change invalidates it.
func fingerprint(cert *Certificate) string {
	body := fmt.Sprintf("%s|%.12f|%.12f|%.12f|%.12f|%.12f|%.12f|%d",
		cert.EntropyHash,
		cert.Signature.Mean, cert.Signature.Std,
		cert.Signature.Min, cert.Signature.Max, cert.Signature.Range,
		cert.Sigma,
		cert.IssuedAt.Unix(),
	)
	digest := sha256.Sum256([]byte(body))
	return hex.EncodeToString(digest[:])
}
