package locator

import (
	"bytes"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Zip local file header magic (both APK and AAB are zip containers)
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// ContainerInfo describes the artifact container as found on disk
type ContainerInfo struct {
	Entries      int
	HasSignature bool
}

// Inspect opens the artifact as a zip container and reports whether it
// already carries a v1 signature block (META-INF signature entries).
// An existing signature is advisory only: the external tool re-signs
// in place without complaint.
func Inspect(artifactPath string) (*ContainerInfo, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	n, _ := f.Read(header)
	f.Close()
	if n < 4 || !bytes.HasPrefix(header[:n], zipMagic) {
		return nil, os.ErrInvalid
	}

	r, err := zip.OpenReader(artifactPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	info := &ContainerInfo{Entries: len(r.File)}
	for _, file := range r.File {
		if isSignatureEntry(file.Name) {
			info.HasSignature = true
			break
		}
	}

	return info, nil
}

// isSignatureEntry reports whether a zip entry is part of a jar
// signature block
func isSignatureEntry(name string) bool {
	dir, base := path.Split(name)
	if dir != "META-INF/" {
		return false
	}
	switch strings.ToUpper(path.Ext(base)) {
	case ".RSA", ".DSA", ".EC", ".SF":
		return true
	}
	return false
}
