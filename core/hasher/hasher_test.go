package hasher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		err   bool
	}{
		{"md5", "md5", 32, false},
		{"sha1", "sha1", 40, false},
		{"sha256", "sha256", 64, false},
		{"sha512", "sha512", 128, false},
		{"blake2b", "blake2b", 64, false},
		{"xxh64", "xxh64", 16, false},
		{"case insensitive", "SHA256", 64, false},
		{"unknown", "crc7", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, err := Lookup(tt.input)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, alg.HexWidth())
		})
	}
}

func TestSupported_Sorted(t *testing.T) {
	assert.Equal(t, []string{"blake2b", "md5", "sha1", "sha256", "sha512", "xxh64"}, Supported())
}

func TestHashReader_KnownDigests(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		alg  string
		want string
	}{
		{MD5, "900150983cd24fb0d6963f7d28e17f72"},
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		t.Run(tt.alg, func(t *testing.T) {
			alg, err := Lookup(tt.alg)
			require.NoError(t, err)
			got, err := HashReader(ctx, strings.NewReader("abc"), alg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, alg.ValidDigest(got))
		})
	}
}

func TestHashReader_EveryAlgorithmProducesItsWidth(t *testing.T) {
	for _, name := range Supported() {
		alg, err := Lookup(name)
		require.NoError(t, err)
		got, err := HashReader(context.Background(), strings.NewReader("payload"), alg)
		require.NoError(t, err)
		assert.Len(t, got, alg.HexWidth(), name)
	}
}

func TestHashFile_LargerThanBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	data := make([]byte, BlockSize*2+17)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	alg, _ := Lookup(SHA256)
	fromFile, err := HashFile(context.Background(), path, alg)
	require.NoError(t, err)
	fromReader, err := HashReader(context.Background(), strings.NewReader(string(data)), alg)
	require.NoError(t, err)
	assert.Equal(t, fromReader, fromFile)
}

func TestHashFile_Missing(t *testing.T) {
	alg, _ := Lookup(MD5)
	_, err := HashFile(context.Background(), filepath.Join(t.TempDir(), "nope"), alg)
	assert.Error(t, err)
}

func TestHashReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	alg, _ := Lookup(MD5)
	_, err := HashReader(ctx, strings.NewReader("abc"), alg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidDigest(t *testing.T) {
	alg, _ := Lookup(MD5)
	assert.True(t, alg.ValidDigest("900150983cd24fb0d6963f7d28e17f72"))
	assert.False(t, alg.ValidDigest("900150983CD24FB0D6963F7D28E17F72"))
	assert.False(t, alg.ValidDigest("zz0150983cd24fb0d6963f7d28e17f72"))
	assert.False(t, alg.ValidDigest("9001"))
}

func TestConfig_ExcludePatterns(t *testing.T) {
	assert.Nil(t, Config{}.ExcludePatterns())
	assert.Equal(t, []string{"**/*.tmp", ".git/**"}, Config{Exclude: " **/*.tmp, ,.git/** "}.ExcludePatterns())
}
