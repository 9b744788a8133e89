// Package reconcile compares two manifests by content and plans the
// filesystem actions that rearrange the destination tree to match the
// source layout.
//
// Reconciliation is pure: it works on in-memory manifests and produces a
// Plan, which is data only. Nothing touches the filesystem until a rendered
// script is reviewed and run by a human.
//
// # Classification
//
// Both manifests are indexed by (digest, size). Every path is then classified:
//
//   - Unchanged: same path and content on both sides. No action.
//   - Changed: same path, different content. Reported only; content is never copied.
//   - Moved: content held by exactly one path on each side, at different paths.
//     Planned as a move of the destination file to the source path.
//   - Duplicate: content held by more than one path on a side. The lowest path
//     is kept and every other copy becomes an advisory removal.
//   - Missing: content only in the source. Reported as needing transfer.
//   - Extra: content only in the destination. Planned as an advisory removal.
//
// A move whose target is occupied by a file that stays, or whose target path
// collides with a destination directory, is reported as a Conflict instead.
//
// # Plan Order
//
// Actions are emitted in fixed sections: mkdir (parent before child), move,
// rmdir (deepest first, advisory) and rm (advisory). Running the first three
// sections never fails for a missing directory, and a second reconciliation
// after running them plans nothing constructive.
//
// # Sources
//
// A Spec pairs two Sources. Manifests can come from a file, from object
// storage ("s3://key") or from a catalog snapshot ("catalog://name").
// VerifiedSource drops records of files no longer present on disk.
//
// # Usage Example
//
//	spec := &reconcile.Spec{
//	    Source:      &reconcile.FileSource{Path: "laptop.hashes"},
//	    Destination: &reconcile.FileSource{Path: ".hashes"},
//	}
//	plan, err := reconcile.ReconcileWithPlan(ctx, spec, reconcile.Options{})
//
//	// Duplicate report for a single manifest
//	plan, err = reconcile.Dedup(m)
package reconcile
