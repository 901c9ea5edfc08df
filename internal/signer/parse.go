package signer

import (
	"bufio"
	"strings"

	"github.com/relsign/relsign/internal/models"
)

// Fatal markers in the tool's verification output. This closed set is
// authoritative: any match forces verified=false, and nothing outside
// it can. Everything else the tool prints is an advisory (self-signed
// certificate notices, missing timestamps) and legitimate release
// builds routinely produce several, so substring-matching beyond this
// set would reject good artifacts.
var fatalMarkers = []string{
	"jar is NOT verified",
	"NOT verified",
	"verified, with signer errors",
}

// Advisory phrases worth surfacing to the operator. Lines matching
// none of these and no fatal marker are informational listing output
// and are dropped.
var advisoryPhrases = []string{
	"self-signed",
	"not timestamped",
	"no -tsa or -tsacert",
	"will expire",
	"has expired",
	"not yet valid",
	"Warning:",
}

// ParseVerification turns the tool's free-form verification output
// into a structured result. Warnings keep their encounter order.
func ParseVerification(output string) *models.SigningResult {
	result := &models.SigningResult{Verified: true}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if marker, ok := matchFatal(line); ok {
			result.Verified = false
			result.FatalMarkers = append(result.FatalMarkers, marker)
			continue
		}

		if alg, ok := strings.CutPrefix(line, "Signature algorithm:"); ok {
			// "SHA256withRSA, 2048-bit key" -> keep the algorithm part
			result.SignatureAlg = strings.TrimSpace(strings.SplitN(alg, ",", 2)[0])
			continue
		}
		if alg, ok := strings.CutPrefix(line, "Digest algorithm:"); ok {
			result.DigestAlg = strings.TrimSpace(alg)
			continue
		}

		if isAdvisory(line) {
			warning := strings.TrimSpace(strings.TrimPrefix(line, "Warning:"))
			if warning != "" {
				result.Warnings = append(result.Warnings, warning)
			}
		}
	}

	return result
}

func matchFatal(line string) (string, bool) {
	for _, marker := range fatalMarkers {
		if strings.Contains(line, marker) {
			return marker, true
		}
	}
	return "", false
}

func isAdvisory(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range advisoryPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
