package runprov

import (
	_ "crypto/sha256" // registers SHA-256 for go-digest

	"github.com/opencontainers/go-digest"
)

// AlgorithmSHA256 is the digest set key used for subject digests.
const AlgorithmSHA256 = string(digest.SHA256)

// AlgorithmSHA1 is the digest set key used for git commit materials.
const AlgorithmSHA1 = "sha1"

// Digest returns the lowercase hex SHA-256 digest of data.
func Digest(data []byte) string {
	return digest.SHA256.FromBytes(data).Encoded()
}
