package hasher

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// BlockSize is the read chunk size used while streaming file contents.
const BlockSize = 1024 * 1024

// HashReader streams r through alg and returns the lowercase hex digest.
func HashReader(ctx context.Context, r io.Reader, alg Algorithm) (string, error) {
	h := alg.New()
	buf := make([]byte, BlockSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile opens path and hashes its contents.
func HashFile(ctx context.Context, path string, alg Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashReader(ctx, f, alg)
}
