//go:build unix

package builder

import (
	"io/fs"
	"syscall"

	"file-hasher/core/manifest"
)

func inodeOf(info fs.FileInfo) manifest.Inode {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return manifest.Inode(st.Ino)
	}
	return manifest.InodeUnknown
}
