package entropy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testAnalysis() Analysis {
	expectations := map[string]float64{}
	for i, basis := range Bases {
		expectations[basis] = float64(i%3-1) * 0.5
	}
	return Analysis{Expectations: expectations, Sigma: 0.41}
}

func TestNewCertificate_Verifies(t *testing.T) {
	cert := NewCertificate([]byte{0xDE, 0xAD, 0xBE, 0xEF}, testAnalysis())

	require.Len(t, cert.EntropyHash, 64)
	require.Len(t, cert.Fingerprint, 64)
	require.InDelta(t, 0.41, cert.Sigma, 1e-12)
	require.NoError(t, VerifyCertificate(cert))
}

func TestCertificate_SignatureStats(t *testing.T) {
	cert := NewCertificate([]byte{0x01}, testAnalysis())

	require.InDelta(t, -0.5, cert.Signature.Min, 1e-12)
	require.InDelta(t, 0.5, cert.Signature.Max, 1e-12)
	require.InDelta(t, 1.0, cert.Signature.Range, 1e-12)
	require.GreaterOrEqual(t, cert.Signature.Std, 0.0)
}

func TestVerifyCertificate_DetectsTampering(t *testing.T) {
	cert := NewCertificate([]byte{0x01, 0x02}, testAnalysis())

	cert.Sigma = 0.9
	require.Error(t, VerifyCertificate(cert))
}

func TestVerifyCertificate_RejectsClassicalSigma(t *testing.T) {
	analysis := testAnalysis()
	analysis.Sigma = 0.01
	cert := NewCertificate([]byte{0x01}, analysis)

	err := VerifyCertificate(cert)
	require.Error(t, err)
	require.Contains(t, err.Error(), "classical floor")
}

func TestVerifyCertificate_NilCertificate(t *testing.T) {
	require.Error(t, VerifyCertificate(nil))
}
