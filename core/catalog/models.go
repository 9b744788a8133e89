package catalog

import "file-hasher/core/manifest"

// RecordRow is one manifest record of a snapshot.
type RecordRow struct {
	ID        uint   `gorm:"column:id;primaryKey"`
	Snapshot  string `gorm:"column:snapshot;size:191;not null;index:idx_snapshot"`
	Algorithm string `gorm:"column:algorithm;size:32;not null"`
	Digest    string `gorm:"column:digest;size:128;not null;index:idx_digest"`
	Dir       string `gorm:"column:dir;size:1024;not null"`
	Name      string `gorm:"column:name;size:255;not null"`
	Size      int64  `gorm:"column:size;not null"`
	Inode     int64  `gorm:"column:inode"`
	Mtime     int64  `gorm:"column:mtime"`
}

// TableName overrides the table name.
func (RecordRow) TableName() string {
	return "manifest_records"
}

func rowFromRecord(snapshot string, r manifest.Record) RecordRow {
	return RecordRow{
		Snapshot:  snapshot,
		Algorithm: r.Algorithm,
		Digest:    r.Digest,
		Dir:       r.Dir,
		Name:      r.Name,
		Size:      r.Size,
		Inode:     int64(r.Inode),
		Mtime:     int64(r.Mtime),
	}
}

// ToRecord converts the row back to a manifest record.
func (row RecordRow) ToRecord() manifest.Record {
	return manifest.Record{
		Algorithm: row.Algorithm,
		Digest:    row.Digest,
		Dir:       row.Dir,
		Name:      row.Name,
		Size:      row.Size,
		Inode:     manifest.Inode(row.Inode),
		Mtime:     manifest.Mtime(row.Mtime),
	}
}

// Path returns the record path relative to the tree root.
func (row RecordRow) Path() string {
	return row.ToRecord().Path()
}

// SnapshotInfo summarizes one stored snapshot.
type SnapshotInfo struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
	Files     int64  `json:"files"`
	Bytes     int64  `json:"bytes"`
}

// DuplicateSet is content stored at more than one path of a snapshot.
type DuplicateSet struct {
	Key   manifest.ContentKey `json:"key"`
	Paths []string            `json:"paths"`
}
