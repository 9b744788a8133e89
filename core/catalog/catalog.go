package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"file-hasher/core/database"
	"file-hasher/core/manifest"

	"gorm.io/gorm"
)

// ErrSnapshotNotFound is returned when a snapshot has no records.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// DefaultBatchSize is the number of rows inserted per statement.
const DefaultBatchSize = 500

// Catalog reads and writes manifest snapshots.
type Catalog struct {
	db        *gorm.DB
	batchSize int
}

// New returns a Catalog backed by db.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db, batchSize: DefaultBatchSize}
}

// Migrate creates or updates the manifest_records table.
func (c *Catalog) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&RecordRow{}); err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return nil
}

// CheckSchema reports columns the manifest_records table is missing.
func (c *Catalog) CheckSchema(ctx context.Context) ([]string, error) {
	return database.MissingColumns(c.db.WithContext(ctx), RecordRow{}.TableName(),
		[]string{"id", "snapshot", "algorithm", "digest", "dir", "name", "size", "inode", "mtime"})
}

// Import replaces snapshot with the records of m. The old rows are only
// removed if every new row is written.
func (c *Catalog) Import(ctx context.Context, snapshot string, m *manifest.Manifest) (int, error) {
	if snapshot == "" {
		return 0, errors.New("snapshot name is required")
	}

	rows := make([]RecordRow, 0, m.Len())
	for _, r := range m.Records() {
		rows = append(rows, rowFromRecord(snapshot, r))
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot = ?", snapshot).Delete(&RecordRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, c.batchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import snapshot %s: %w", snapshot, err)
	}
	return len(rows), nil
}

// Load rebuilds the manifest stored as snapshot, ordered by path.
func (c *Catalog) Load(ctx context.Context, snapshot string) (*manifest.Manifest, error) {
	var rows []RecordRow
	if err := c.db.WithContext(ctx).Where("snapshot = ?", snapshot).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", snapshot, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshot)
	}

	m := manifest.New(rows[0].Algorithm)
	for _, row := range rows {
		if err := m.Put(row.ToRecord()); err != nil {
			return nil, fmt.Errorf("snapshot %s is inconsistent: %w", snapshot, err)
		}
	}
	m.SortByPath()
	return m, nil
}

// Snapshots lists stored snapshots by name.
func (c *Catalog) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	err := c.db.WithContext(ctx).Model(&RecordRow{}).
		Select("snapshot AS name, MAX(algorithm) AS algorithm, COUNT(*) AS files, COALESCE(SUM(size), 0) AS bytes").
		Group("snapshot").
		Order("snapshot").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}

// Delete removes a snapshot. Deleting an unknown snapshot is not an error.
func (c *Catalog) Delete(ctx context.Context, snapshot string) (int64, error) {
	res := c.db.WithContext(ctx).Where("snapshot = ?", snapshot).Delete(&RecordRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete snapshot %s: %w", snapshot, res.Error)
	}
	return res.RowsAffected, nil
}

// Duplicates lists content stored at more than one path of snapshot.
// Paths within a set are sorted; sets are ordered by their first path.
func (c *Catalog) Duplicates(ctx context.Context, snapshot string) ([]DuplicateSet, error) {
	type groupRow struct {
		Digest string
		Size   int64
	}
	var groups []groupRow
	err := c.db.WithContext(ctx).Model(&RecordRow{}).
		Select("digest, size").
		Where("snapshot = ?", snapshot).
		Group("digest, size").
		Having("COUNT(*) > 1").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicates: %w", err)
	}
	if len(groups) == 0 {
		return []DuplicateSet{}, nil
	}

	wanted := make(map[manifest.ContentKey]bool, len(groups))
	digests := make([]string, 0, len(groups))
	for _, g := range groups {
		wanted[manifest.ContentKey{Digest: g.Digest, Size: g.Size}] = true
		digests = append(digests, g.Digest)
	}

	var rows []RecordRow
	if err := c.db.WithContext(ctx).Where("snapshot = ? AND digest IN ?", snapshot, digests).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query duplicates: %w", err)
	}

	byKey := make(map[manifest.ContentKey][]string)
	for _, row := range rows {
		key := manifest.ContentKey{Digest: row.Digest, Size: row.Size}
		if wanted[key] {
			byKey[key] = append(byKey[key], row.Path())
		}
	}

	out := make([]DuplicateSet, 0, len(byKey))
	for key, paths := range byKey {
		sort.Strings(paths)
		out = append(out, DuplicateSet{Key: key, Paths: paths})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Paths[0] < out[j].Paths[0]
	})
	return out, nil
}
