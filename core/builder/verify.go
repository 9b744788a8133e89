package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"file-hasher/core/manifest"
)

// errSizeChanged marks a file whose size no longer matches its record.
var errSizeChanged = errors.New("size changed since hashing")

// Verify keeps the records whose file still exists under root as a regular
// file of the recorded size. Every other record is dropped and reported, so
// a script planned from the result never refers to a vanished file.
func Verify(ctx context.Context, root string, m *manifest.Manifest) (*manifest.Manifest, []*manifest.FileUnavailableError, error) {
	out := manifest.New(m.Algorithm)
	var skipped []*manifest.FileUnavailableError

	for _, rec := range m.Records() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rec.Path())))
		switch {
		case err != nil:
			skipped = append(skipped, &manifest.FileUnavailableError{Path: rec.Path(), Err: err})
			continue
		case !info.Mode().IsRegular():
			skipped = append(skipped, &manifest.FileUnavailableError{Path: rec.Path(), Err: fmt.Errorf("not a regular file (%s)", info.Mode().Type())})
			continue
		case info.Size() != rec.Size:
			skipped = append(skipped, &manifest.FileUnavailableError{Path: rec.Path(), Err: errSizeChanged})
			continue
		}

		if err := out.Put(rec); err != nil {
			return nil, nil, err
		}
	}

	return out, skipped, nil
}
