package builder

import (
	"fmt"
	"strings"
)

// Mode selects how an existing manifest is treated.
type Mode string

const (
	// ModeGenerate hashes everything and ignores any existing manifest.
	ModeGenerate Mode = "generate"
	// ModeAppend hashes everything and adds to the existing manifest.
	ModeAppend Mode = "append"
	// ModeUpdate rehashes only files whose size or mtime changed.
	ModeUpdate Mode = "update"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeGenerate:
		return ModeGenerate, nil
	case ModeAppend:
		return ModeAppend, nil
	case ModeUpdate:
		return ModeUpdate, nil
	default:
		return "", fmt.Errorf("unknown build mode %q", s)
	}
}

// Event is a progress notification emitted by a worker after each file.
type Event struct {
	// WorkerID identifies the worker, starting at 0.
	WorkerID int
	// Completed is the worker's monotonically increasing file count.
	Completed int
	// Total is the number of files assigned to the worker.
	Total int
	// Path is the file just processed.
	Path string
}

// ProgressFunc receives progress events. It is called from a single
// goroutine, never concurrently.
type ProgressFunc func(Event)

// Options configures a build.
type Options struct {
	// Root is the directory tree to hash.
	Root string
	// Algorithm is the hash algorithm name.
	Algorithm string
	// Mode selects generate, append or update behavior.
	Mode Mode
	// Workers is the pool size. Zero or less uses runtime.NumCPU().
	Workers int
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to Root.
	Exclude []string
	// ManifestPath is the manifest being written. It and its pending temp
	// files are never hashed when they live inside Root.
	ManifestPath string
	// AllowAlgorithmChange lets append/update proceed when the existing
	// manifest uses another algorithm. Its records are discarded.
	AllowAlgorithmChange bool
	// Progress optionally receives progress events.
	Progress ProgressFunc
}
