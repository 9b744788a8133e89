//go:build !unix

package builder

import (
	"io/fs"

	"file-hasher/core/manifest"
)

func inodeOf(fs.FileInfo) manifest.Inode {
	return manifest.InodeUnknown
}
