package builder

import (
	"context"
	"os"
	"path/filepath"

	"file-hasher/core/manifest"
)

// MigrateReport summarizes a legacy manifest migration.
type MigrateReport struct {
	// Candidates is the number of records without a plausible mtime.
	Candidates int
	// Updated is the number of records that received a fresh mtime.
	Updated int
	// Missing lists candidate paths no longer present under the root.
	Missing []string
	// SizeChanged lists candidate paths whose size differs on disk. Their
	// digest can no longer be trusted, so they are left for the next update.
	SizeChanged []string
}

// Migrate fills in mtime and inode for records written by older versions
// of the tool, without rehashing. A record is only touched when the file
// still exists with the recorded size.
func Migrate(ctx context.Context, root string, m *manifest.Manifest) (*manifest.Manifest, *MigrateReport, error) {
	out := manifest.New(m.Algorithm)
	report := &MigrateReport{}

	for _, rec := range m.Records() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if rec.Mtime.Plausible() {
			if err := out.Put(rec); err != nil {
				return nil, nil, err
			}
			continue
		}
		report.Candidates++

		info, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rec.Path())))
		switch {
		case err != nil || !info.Mode().IsRegular():
			report.Missing = append(report.Missing, rec.Path())
		case info.Size() != rec.Size:
			report.SizeChanged = append(report.SizeChanged, rec.Path())
		default:
			rec.Mtime = manifest.MtimeOf(info.ModTime())
			rec.Inode = inodeOf(info)
			report.Updated++
		}
		if err := out.Put(rec); err != nil {
			return nil, nil, err
		}
	}

	return out, report, nil
}
