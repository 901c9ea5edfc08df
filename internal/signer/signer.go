package signer

import (
	"context"

	"github.com/relsign/relsign/internal/models"
)

// Signer applies a signature to an artifact in place. The filename is
// not changed by signing; renaming is a separate stage.
type Signer interface {
	// Sign embeds a signature block into the artifact at path
	Sign(ctx context.Context, path string, ks models.KeystoreReference) error
}

// Verifier checks the signature on an artifact
type Verifier interface {
	// Verify parses the external tool's verification output into a
	// structured result
	Verify(ctx context.Context, path string) (*models.SigningResult, error)
}
