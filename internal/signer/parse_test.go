package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verifiedOutput = `
s 1234 Fri Aug 28 10:00:00 UTC 2026 META-INF/MANIFEST.MF
sm 5678 Fri Aug 28 10:00:00 UTC 2026 AndroidManifest.xml

- Signed by "CN=release, OU=mobile"
    Digest algorithm: SHA-256
    Signature algorithm: SHA256withRSA, 2048-bit key

jar verified.

Warning:
This jar contains entries whose certificate chain is invalid. Reason: PKIX path building failed
This jar contains entries whose signer certificate is self-signed.
No -tsa or -tsacert is provided and this jar is not timestamped.
`

func TestParseVerifiedWithAdvisories(t *testing.T) {
	result := ParseVerification(verifiedOutput)

	assert.True(t, result.Verified)
	assert.Empty(t, result.FatalMarkers)
	assert.Equal(t, "SHA256withRSA", result.SignatureAlg)
	assert.Equal(t, "SHA-256", result.DigestAlg)

	// Advisories are surfaced in encounter order, never escalated.
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "self-signed")
	assert.Contains(t, result.Warnings[1], "not timestamped")
}

func TestParseNotVerified(t *testing.T) {
	result := ParseVerification("jar is NOT verified.\n")

	assert.False(t, result.Verified)
	require.Len(t, result.FatalMarkers, 1)
	assert.Equal(t, "jar is NOT verified", result.FatalMarkers[0])
}

func TestParseSignerErrors(t *testing.T) {
	output := `
- Signed by "CN=release"
jar verified, with signer errors.

This jar contains entries whose signer certificate is self-signed.
`
	result := ParseVerification(output)

	assert.False(t, result.Verified)
	require.Len(t, result.FatalMarkers, 1)
	assert.Equal(t, "verified, with signer errors", result.FatalMarkers[0])
	// Advisories still collected alongside the fatal verdict.
	assert.Len(t, result.Warnings, 1)
}

func TestParseFatalMarkerWinsOverAdvisories(t *testing.T) {
	output := verifiedOutput + "\njar is NOT verified.\n"
	result := ParseVerification(output)
	assert.False(t, result.Verified)
}

func TestParseAdvisoryOnlyOutputIsVerified(t *testing.T) {
	// The closed fatal set is the single authority: output with only
	// advisory phrases and no fatal markers verifies.
	result := ParseVerification("Warning:\nThis jar contains entries whose signer certificate is self-signed.\n")
	assert.True(t, result.Verified)
}

func TestParseEmptyOutput(t *testing.T) {
	result := ParseVerification("")
	assert.True(t, result.Verified)
	assert.Empty(t, result.Warnings)
}
