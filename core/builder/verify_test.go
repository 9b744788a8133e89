package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"file-hasher/core/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"present.txt": "present",
		"grown.txt":   "grown a lot",
		"dir/file":    "x",
	})

	m := manifest.New("md5")
	put := func(r manifest.Record) { require.NoError(t, m.Put(r)) }
	put(manifest.Record{Digest: md5Hex("present"), Name: "present.txt", Size: 7})
	put(manifest.Record{Digest: md5Hex("grown"), Name: "grown.txt", Size: 5})
	put(manifest.Record{Digest: md5Hex("gone"), Name: "gone.txt", Size: 4})
	put(manifest.Record{Digest: md5Hex("dir"), Name: "dir", Size: 4096})

	out, skipped, err := Verify(context.Background(), root, m)
	require.NoError(t, err)

	assert.Equal(t, []string{"present.txt"}, out.Paths())
	assert.Equal(t, "md5", out.Algorithm)

	require.Len(t, skipped, 3)
	assert.Equal(t, "grown.txt", skipped[0].Path)
	assert.ErrorIs(t, skipped[0], errSizeChanged)
	assert.Equal(t, "gone.txt", skipped[1].Path)
	assert.ErrorIs(t, skipped[1], os.ErrNotExist)
	assert.Equal(t, "dir", skipped[2].Path)
}

func TestVerify_Cancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), []byte("a"), 0o644))

	m := manifest.New("md5")
	require.NoError(t, m.Put(manifest.Record{Digest: md5Hex("a"), Name: "a", Size: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Verify(ctx, root, m)
	assert.ErrorIs(t, err, context.Canceled)
}
