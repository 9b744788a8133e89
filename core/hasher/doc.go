// Package hasher computes content digests for manifest records.
//
// It keeps a fixed registry of supported hash families. Every algorithm has a
// lowercase name (the first field of a manifest line) and a fixed hexadecimal
// digest width, which the manifest codec uses to validate digests.
//
// # Algorithms
//
//   - md5, sha1, sha256, sha512: standard library implementations
//   - blake2b: 256-bit BLAKE2b from golang.org/x/crypto
//   - xxh64: non-cryptographic XXH64 from github.com/cespare/xxhash
//
// # Streaming
//
// HashFile reads files in fixed 1 MiB chunks so memory use is bounded
// regardless of file size, and checks for cancellation between chunks.
//
// # Usage
//
//	alg, err := hasher.Lookup("sha256")
//	digest, err := hasher.HashFile(ctx, "/data/a.bin", alg)
package hasher
