// Package manifest holds the content records of one directory tree snapshot
// and the line-oriented codec used to persist them.
//
// # File Format
//
// Each line is a pipe-delimited record:
//
//	algorithm|digest|subdir|filename|size_bytes[|inode[|mtime]]
//
// Lines with 5 or 6 fields come from older versions of the tool. A missing
// inode is read as "unknown" and a missing mtime as "absent"; both are
// explicit sentinels so they can never be confused with a real 0. A header
// comment "# Algorithm: <name>" records the algorithm even when the manifest
// holds no records.
//
// # Tolerance
//
// Parse never fails because of a single bad line. Malformed lines are skipped
// and returned as ParseError values carrying the line number, so an otherwise
// valid manifest always loads.
//
// # Persistence
//
// Save writes the whole manifest to a temporary file next to the target and
// atomically renames it into place, so an interrupted run never truncates an
// existing manifest.
//
// # Usage
//
//	m, warnings, err := manifest.Load(".hashes")
//	for _, w := range warnings {
//	    log.Warn("skipped manifest line", zap.Int("line", w.Line), zap.String("reason", w.Reason))
//	}
//	err = manifest.Save(".hashes", m)
package manifest
