// Package builder walks a directory tree and produces a manifest of content
// records using a fixed-size worker pool.
//
// # Modes
//
//   - generate: ignore any existing manifest and hash every file.
//   - append: hash every file and add the records to the existing manifest
//     without removing entries for files that no longer exist.
//   - update: reuse the digest of any file whose size and mtime match the
//     existing record, rehash the rest, and drop records for files that are
//     gone or unreadable.
//
// # Concurrency
//
// The file list is enumerated once (symlinks are never followed), sorted, and
// statically partitioned across the workers, so no queue is shared. Workers
// only share a progress channel drained by a single aggregator goroutine.
// The merged manifest is keyed and sorted by path, so its content does not
// depend on scheduling order.
//
// # Failures
//
// A file that vanishes or cannot be read after enumeration is skipped and
// reported; it never aborts the run. Cancellation aborts the build and
// returns no manifest, leaving any manifest on disk untouched.
//
// # Maintenance
//
// Migrate fills in mtime and inode of legacy records without rehashing.
// Verify drops records whose file is gone or resized, for planning against a
// manifest that may be older than the tree.
package builder
