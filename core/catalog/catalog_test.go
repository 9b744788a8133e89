package catalog

import (
	"context"
	"errors"
	"testing"

	"file-hasher/core/database"
	"file-hasher/core/manifest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	digestA = "0cc175b9c0f1b6a831c399e269772661"
	digestB = "92eb5ffee6ae2fec3ad71c777531578f"
)

func setupCatalog(t *testing.T) *Catalog {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	c := New(db)
	require.NoError(t, c.Migrate(context.Background()))
	return c
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func sampleManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m := manifest.New("md5")
	for _, r := range []manifest.Record{
		{Digest: digestB, Dir: "photos", Name: "b.jpg", Size: 1, Inode: 7, Mtime: 1700000000},
		{Digest: digestA, Name: "a.txt", Size: 1, Inode: manifest.InodeUnknown, Mtime: manifest.MtimeAbsent},
		{Digest: digestA, Dir: "backup", Name: "a.txt", Size: 1, Inode: 9, Mtime: 1700000001},
		{Digest: digestA, Dir: "backup", Name: "a-copy.txt", Size: 1, Inode: 9, Mtime: 1700000001},
	} {
		require.NoError(t, m.Put(r))
	}
	return m
}

func TestImportLoad(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()
	m := sampleManifest(t)

	n, err := c.Import(ctx, "laptop", m)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	loaded, err := c.Load(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, "md5", loaded.Algorithm)
	assert.Equal(t, []string{"a.txt", "backup/a-copy.txt", "backup/a.txt", "photos/b.jpg"}, loaded.Paths())

	rec, ok := loaded.Get("a.txt")
	require.True(t, ok)
	assert.True(t, rec.Mtime.IsAbsent(), "absent sentinel survives storage")
	assert.Equal(t, manifest.InodeUnknown, rec.Inode)

	photo, _ := loaded.Get("photos/b.jpg")
	assert.Equal(t, manifest.Mtime(1700000000), photo.Mtime)
	assert.Equal(t, manifest.Inode(7), photo.Inode)
}

func TestImportReplacesSnapshot(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	_, err := c.Import(ctx, "laptop", sampleManifest(t))
	require.NoError(t, err)
	_, err = c.Import(ctx, "server", sampleManifest(t))
	require.NoError(t, err)

	smaller := manifest.New("md5")
	require.NoError(t, smaller.Put(manifest.Record{Digest: digestB, Name: "only.txt", Size: 1}))
	n, err := c.Import(ctx, "laptop", smaller)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	loaded, err := c.Load(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, []string{"only.txt"}, loaded.Paths())

	other, err := c.Load(ctx, "server")
	require.NoError(t, err)
	assert.Equal(t, 4, other.Len())
}

func TestLoad_UnknownSnapshot(t *testing.T) {
	c := setupCatalog(t)

	m, err := c.Load(context.Background(), "nope")
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestImport_RequiresName(t *testing.T) {
	c := setupCatalog(t)
	_, err := c.Import(context.Background(), "", sampleManifest(t))
	assert.Error(t, err)
}

func TestSnapshots(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	_, err := c.Import(ctx, "server", sampleManifest(t))
	require.NoError(t, err)
	_, err = c.Import(ctx, "laptop", sampleManifest(t))
	require.NoError(t, err)

	snaps, err := c.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, SnapshotInfo{Name: "laptop", Algorithm: "md5", Files: 4, Bytes: 4}, snaps[0])
	assert.Equal(t, "server", snaps[1].Name)
}

func TestDuplicates(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	_, err := c.Import(ctx, "laptop", sampleManifest(t))
	require.NoError(t, err)

	sets, err := c.Duplicates(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, manifest.ContentKey{Digest: digestA, Size: 1}, sets[0].Key)
	assert.Equal(t, []string{"a.txt", "backup/a-copy.txt", "backup/a.txt"}, sets[0].Paths)

	none, err := c.Duplicates(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	_, err := c.Import(ctx, "laptop", sampleManifest(t))
	require.NoError(t, err)

	n, err := c.Delete(ctx, "laptop")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = c.Load(ctx, "laptop")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestCheckSchema(t *testing.T) {
	c := setupCatalog(t)

	missing, err := c.CheckSchema(context.Background())
	require.NoError(t, err)
	assert.Empty(t, missing)

	t.Run("Unmigrated", func(t *testing.T) {
		db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
		require.NoError(t, err)

		missing, err := New(db).CheckSchema(context.Background())
		require.NoError(t, err)
		assert.Contains(t, missing, "digest")
		assert.Len(t, missing, 9)
	})

	t.Run("Dropped Column", func(t *testing.T) {
		require.NoError(t, c.db.Migrator().DropColumn(&RecordRow{}, "Inode"))

		missing, err := c.CheckSchema(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"inode"}, missing)
	})
}

func TestImport_TransactionFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	c := New(db)
	n, err := c.Import(context.Background(), "laptop", sampleManifest(t))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `manifest_records`").WillReturnError(errors.New("table locked"))

	c := New(db)
	_, err := c.Load(context.Background(), "laptop")
	assert.ErrorContains(t, err, "table locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}
