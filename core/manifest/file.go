package manifest

import (
	"bufio"
	"fmt"
	"os"

	"github.com/google/renameio"
)

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, []*ParseError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Save atomically replaces the manifest at path. The previous file stays
// intact until the new content is fully written and synced.
func Save(path string, m *Manifest) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("failed to create pending manifest for %s: %w", path, err)
	}
	defer t.Cleanup()

	if err := t.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}

	w := bufio.NewWriter(t)
	if err := Serialize(w, m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush manifest: %w", err)
	}

	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to commit manifest %s: %w", path, err)
	}
	return nil
}
