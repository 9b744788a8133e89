package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names accepted in manifests and on the command line.
const (
	MD5     = "md5"
	SHA1    = "sha1"
	SHA256  = "sha256"
	SHA512  = "sha512"
	BLAKE2b = "blake2b"
	XXH64   = "xxh64"
)

// Default is the algorithm used when neither config nor flags pick one.
const Default = SHA256

// Algorithm describes one supported hash family.
type Algorithm struct {
	// Name is the lowercase identifier written to manifests.
	Name string
	// Size is the digest size in bytes.
	Size int

	newHash func() hash.Hash
}

// New returns a fresh hash state.
func (a Algorithm) New() hash.Hash {
	return a.newHash()
}

// HexWidth is the number of hex characters of a digest.
func (a Algorithm) HexWidth() int {
	return a.Size * 2
}

// ValidDigest reports whether digest is lowercase hex of the right width.
func (a Algorithm) ValidDigest(digest string) bool {
	if len(digest) != a.HexWidth() {
		return false
	}
	for i := 0; i < len(digest); i++ {
		c := digest[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

var registry = map[string]Algorithm{
	MD5:    {Name: MD5, Size: md5.Size, newHash: md5.New},
	SHA1:   {Name: SHA1, Size: sha1.Size, newHash: sha1.New},
	SHA256: {Name: SHA256, Size: sha256.Size, newHash: sha256.New},
	SHA512: {Name: SHA512, Size: sha512.Size, newHash: sha512.New},
	BLAKE2b: {Name: BLAKE2b, Size: blake2b.Size256, newHash: func() hash.Hash {
		// New256 only fails for keys longer than 64 bytes.
		h, _ := blake2b.New256(nil)
		return h
	}},
	XXH64: {Name: XXH64, Size: 8, newHash: func() hash.Hash { return xxhash.New() }},
}

// ErrUnsupportedAlgorithm is returned by Lookup for unknown names.
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

// Lookup returns the algorithm registered under name (case-insensitive).
func Lookup(name string) (Algorithm, error) {
	alg, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedAlgorithm, name, strings.Join(Supported(), ", "))
	}
	return alg, nil
}

// IsSupported reports whether name is a registered algorithm.
func IsSupported(name string) bool {
	_, ok := registry[name]
	return ok
}

// Supported returns the sorted list of algorithm names.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
