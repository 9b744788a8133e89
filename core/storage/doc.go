// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface and adds the
// operations used to exchange manifests between machines: a manifest hashed
// on one host is published to a bucket and fetched on another, where it can
// be reconciled against the local tree. File contents never travel this way.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - PutManifest: Serializes and uploads a manifest, creating the bucket if needed.
//   - GetManifest: Downloads and parses a manifest, returning line warnings.
//   - ListManifests: Lists published manifests under a prefix.
//   - DeleteManifest: Removes a published manifest.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	err = storage.PutManifest(ctx, client, config.Bucket, storage.ObjectKey(config.Prefix, "laptop"), m)
package storage
