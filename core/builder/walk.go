package builder

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"file-hasher/core/manifest"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// fileEntry is a regular file found during enumeration.
type fileEntry struct {
	rel   string
	abs   string
	size  int64
	mtime manifest.Mtime
	inode manifest.Inode
}

// enumeration is the result of walking the tree.
type enumeration struct {
	files           []fileEntry
	skipped         []*manifest.FileUnavailableError
	unrepresentable []string
}

// enumerate walks the tree without following symlinks.
func (b *Builder) enumerate(ctx context.Context) (*enumeration, error) {
	root := filepath.Clean(b.opts.Root)
	out := &enumeration{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			if rel == "." {
				return err
			}
			b.logger.Warn("Skipping unreadable path", zap.String("path", rel), zap.Error(err))
			out.skipped = append(out.skipped, &manifest.FileUnavailableError{Path: rel, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if b.excluded(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			// Symlinks, sockets, devices and pipes.
			return nil
		}
		if b.excluded(rel) || b.isManifestFile(rel) {
			return nil
		}
		if !manifest.Representable(rel) {
			b.logger.Warn("Skipping path that cannot be stored in a manifest", zap.String("path", rel))
			out.unrepresentable = append(out.unrepresentable, rel)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			out.skipped = append(out.skipped, &manifest.FileUnavailableError{Path: rel, Err: err})
			return nil
		}
		out.files = append(out.files, fileEntry{
			rel:   rel,
			abs:   p,
			size:  info.Size(),
			mtime: manifest.MtimeOf(info.ModTime()),
			inode: inodeOf(info),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) excluded(rel string) bool {
	for _, pattern := range b.opts.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// isManifestFile matches the manifest being written and its pending
// replacement files.
func (b *Builder) isManifestFile(rel string) bool {
	if b.manifestRel == "" {
		return false
	}
	if rel == b.manifestRel || rel == b.manifestRel+".new" {
		return true
	}
	dir, base := path.Split(rel)
	mdir, mbase := path.Split(b.manifestRel)
	return dir == mdir && strings.HasPrefix(base, "."+mbase)
}

// relativeManifest returns the manifest path relative to root, or "" when it
// lives outside the tree.
func relativeManifest(root, manifestPath string) string {
	if manifestPath == "" {
		return ""
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	absManifest, err := filepath.Abs(manifestPath)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absRoot, absManifest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}
