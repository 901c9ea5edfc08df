package attest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyFile(t *testing.T) (string, *openpgp.Entity) {
	t.Helper()
	entity, err := openpgp.NewEntity("relsign test", "", "test@example.com", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "release.asc")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := armor.Encode(f, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(w, nil))
	require.NoError(t, w.Close())

	return path, entity
}

func TestSignDetachedRoundTrip(t *testing.T) {
	keyPath, entity := generateKeyFile(t)

	attester, err := NewGPGAttester(keyPath, "")
	require.NoError(t, err)

	manifest := []byte("abc123  app-release-signed.apk\n")
	sig, err := attester.SignDetached(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(sig), "BEGIN PGP SIGNATURE")

	signer, err := openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{entity}, bytes.NewReader(manifest), bytes.NewReader(sig), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.PrimaryKey.KeyId, signer.PrimaryKey.KeyId)
}

func TestSignDetachedRejectsTamperedManifest(t *testing.T) {
	keyPath, entity := generateKeyFile(t)

	attester, err := NewGPGAttester(keyPath, "")
	require.NoError(t, err)

	sig, err := attester.SignDetached([]byte("original manifest\n"))
	require.NoError(t, err)

	_, err = openpgp.CheckArmoredDetachedSignature(
		openpgp.EntityList{entity}, bytes.NewReader([]byte("tampered manifest\n")), bytes.NewReader(sig), nil)
	assert.Error(t, err)
}

func TestNewGPGAttesterMissingKey(t *testing.T) {
	_, err := NewGPGAttester(filepath.Join(t.TempDir(), "nope.asc"), "")
	assert.Error(t, err)

	_, err = NewGPGAttester("", "")
	assert.Error(t, err)
}
