package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"file-hasher/core/manifest"
	"file-hasher/core/storage"
	"file-hasher/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const digestA = "0cc175b9c0f1b6a831c399e269772661"

func sampleManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m := manifest.New("md5")
	require.NoError(t, m.Put(manifest.Record{Digest: digestA, Dir: "docs", Name: "a.txt", Size: 1, Inode: 12, Mtime: 1700000000}))
	return m
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "hashes/laptop", storage.ObjectKey("hashes/", "laptop"))
	assert.Equal(t, "hashes/laptop", storage.ObjectKey("hashes/", "hashes/laptop"))
	assert.Equal(t, "laptop", storage.ObjectKey("", "/laptop"))
}

func TestPutManifest(t *testing.T) {
	t.Run("Uploads Serialized Manifest", func(t *testing.T) {
		m := sampleManifest(t)
		var uploaded []byte

		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "manifests").Return(true, nil)
		mockClient.On("PutObject", mock.Anything, "manifests", "hashes/laptop", mock.Anything, mock.Anything, mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
			return opts.ContentType == storage.ManifestContentType
		})).Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			uploaded = data
			assert.Equal(t, int64(len(data)), args.Get(4).(int64))
		}).Return(minio.UploadInfo{}, nil)

		err := storage.PutManifest(context.Background(), mockClient, "manifests", "hashes/laptop", m)
		require.NoError(t, err)

		parsed, warnings, err := manifest.Parse(bytes.NewReader(uploaded))
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, m.Records(), parsed.Records())
		mockClient.AssertExpectations(t)
	})

	t.Run("Creates Missing Bucket", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "manifests").Return(false, nil)
		mockClient.On("MakeBucket", mock.Anything, "manifests", mock.Anything).Return(nil)
		mockClient.On("PutObject", mock.Anything, "manifests", "k", mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

		err := storage.PutManifest(context.Background(), mockClient, "manifests", "k", sampleManifest(t))
		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Upload Failure", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "manifests").Return(true, nil)
		mockClient.On("PutObject", mock.Anything, "manifests", "k", mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, errors.New("denied"))

		err := storage.PutManifest(context.Background(), mockClient, "manifests", "k", sampleManifest(t))
		assert.ErrorContains(t, err, "denied")
	})

	t.Run("Bucket Check Failure", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "manifests").Return(false, errors.New("offline"))

		err := storage.PutManifest(context.Background(), mockClient, "manifests", "k", sampleManifest(t))
		assert.ErrorContains(t, err, "offline")
		mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetManifest(t *testing.T) {
	t.Run("Parses Object", func(t *testing.T) {
		body := "# Algorithm: md5\n" +
			"md5|" + digestA + "|docs|a.txt|1|12|1700000000\n" +
			"not a record\n"

		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "manifests", "hashes/laptop", mock.Anything).
			Return(io.NopCloser(bytes.NewBufferString(body)), nil)

		m, warnings, err := storage.GetManifest(context.Background(), mockClient, "manifests", "hashes/laptop")
		require.NoError(t, err)
		assert.Equal(t, []string{"docs/a.txt"}, m.Paths())
		require.Len(t, warnings, 1)
		assert.Equal(t, 3, warnings[0].Line)
	})

	t.Run("Missing Object", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "manifests", "nope", mock.Anything).Return(nil, errors.New("NoSuchKey"))

		m, _, err := storage.GetManifest(context.Background(), mockClient, "manifests", "nope")
		assert.Nil(t, m)
		assert.ErrorContains(t, err, "NoSuchKey")
	})
}

func TestListManifests(t *testing.T) {
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "hashes/server"}
	ch <- minio.ObjectInfo{Key: "hashes/laptop"}
	close(ch)

	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "manifests", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "hashes/" && opts.Recursive
	})).Return((<-chan minio.ObjectInfo)(ch))

	keys, err := storage.ListManifests(context.Background(), mockClient, "manifests", "hashes/")
	require.NoError(t, err)
	assert.Equal(t, []string{"hashes/laptop", "hashes/server"}, keys)
}

func TestListManifests_Error(t *testing.T) {
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("access denied")}
	close(ch)

	mockClient := new(mocks.Client)
	mockClient.On("ListObjects", mock.Anything, "manifests", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := storage.ListManifests(context.Background(), mockClient, "manifests", "")
	assert.ErrorContains(t, err, "access denied")
}

func TestDeleteManifest(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("RemoveObject", mock.Anything, "manifests", "hashes/old", mock.Anything).Return(nil)

	assert.NoError(t, storage.DeleteManifest(context.Background(), mockClient, "manifests", "hashes/old"))
	mockClient.AssertExpectations(t)
}
