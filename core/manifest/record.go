package manifest

import (
	"math"
	"path"
	"strconv"
	"strings"
	"time"
)

// EpochFloor is the earliest plausible modification time (1990-01-01 UTC).
// Older values are treated like an absent mtime during incremental updates.
const EpochFloor = 631152000

// Mtime is a modification time in Unix seconds.
type Mtime int64

// MtimeAbsent marks a record whose mtime was never recorded.
const MtimeAbsent Mtime = math.MinInt64

// MtimeOf converts a time to an Mtime.
func MtimeOf(t time.Time) Mtime {
	return Mtime(t.Unix())
}

// IsAbsent reports whether the mtime was never recorded.
func (t Mtime) IsAbsent() bool {
	return t == MtimeAbsent
}

// Plausible reports whether the mtime can be trusted to skip rehashing.
func (t Mtime) Plausible() bool {
	return !t.IsAbsent() && t >= EpochFloor
}

func (t Mtime) String() string {
	if t.IsAbsent() {
		return "absent"
	}
	return strconv.FormatInt(int64(t), 10)
}

// ParseMtime reads an integer or fractional Unix timestamp. Anything else,
// including the literal "absent", yields MtimeAbsent.
func ParseMtime(s string) Mtime {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil && v != int64(MtimeAbsent) {
		return Mtime(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) &&
		v > math.MinInt64 && v < math.MaxInt64 {
		return Mtime(int64(v))
	}
	return MtimeAbsent
}

// Inode is a filesystem inode number. It is a hint only, never identity.
type Inode int64

// InodeUnknown marks a record without inode information.
const InodeUnknown Inode = -1

func (i Inode) String() string {
	if i < 0 {
		return "unknown"
	}
	return strconv.FormatInt(int64(i), 10)
}

// ParseInode reads a non-negative inode number or returns InodeUnknown.
func ParseInode(s string) Inode {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return InodeUnknown
	}
	return Inode(v)
}

// ContentKey identifies file content independently of its location.
type ContentKey struct {
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

func (k ContentKey) String() string {
	return k.Digest + ":" + strconv.FormatInt(k.Size, 10)
}

// Record is one file's content fingerprint plus the metadata needed to
// detect change without rehashing.
type Record struct {
	// Algorithm is the hash function that produced Digest.
	Algorithm string `json:"algorithm"`
	// Digest is the lowercase hex content hash.
	Digest string `json:"digest"`
	// Dir is the slash-separated directory relative to the tree root,
	// empty for root-level files.
	Dir string `json:"dir"`
	// Name is the base filename.
	Name string `json:"name"`
	// Size is the file size in bytes at hash time.
	Size int64 `json:"size"`
	// Inode is the inode number at hash time.
	Inode Inode `json:"inode"`
	// Mtime is the modification time at hash time.
	Mtime Mtime `json:"mtime"`
}

// Path returns the record's path relative to the tree root.
func (r Record) Path() string {
	if r.Dir == "" {
		return r.Name
	}
	return r.Dir + "/" + r.Name
}

// Key returns the content identity of the record.
func (r Record) Key() ContentKey {
	return ContentKey{Digest: r.Digest, Size: r.Size}
}

// SplitPath splits a slash-separated relative path into its normalized
// directory and base name.
func SplitPath(rel string) (dir, name string) {
	dir, name = path.Split(path.Clean("/" + rel))
	return normalizeDir(dir), name
}

// Ancestors returns every ancestor directory of a relative path, shallowest
// first. The tree root is not included.
func Ancestors(rel string) []string {
	dir, _ := SplitPath(rel)
	if dir == "" {
		return nil
	}
	parts := strings.Split(dir, "/")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "/"))
	}
	return out
}

// normalizeDir maps legacy "." and "./x" subdirs to "" and "x".
func normalizeDir(dir string) string {
	dir = path.Clean("/" + dir)
	return strings.TrimPrefix(dir, "/")
}
