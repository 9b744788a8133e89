package mocks

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
)

// Client records calls made against storage.Client.
//
// GetObject accepts a nil first return for a failed download. ListObjects
// without a configured channel yields an empty listing.
type Client struct {
	mock.Mock
}

func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ret := c.Called(ctx, bucket)
	return ret.Bool(0), ret.Error(1)
}

func (c *Client) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return c.Called(ctx, bucket, opts).Error(0)
}

func (c *Client) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	ret := c.Called(ctx, bucket, key, body, size, opts)
	info, _ := ret.Get(0).(minio.UploadInfo)
	return info, ret.Error(1)
}

func (c *Client) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	ret := c.Called(ctx, bucket, key, opts)
	body, _ := ret.Get(0).(io.ReadCloser)
	return body, ret.Error(1)
}

func (c *Client) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	ret := c.Called(ctx, bucket, opts)
	if listing, ok := ret.Get(0).(<-chan minio.ObjectInfo); ok {
		return listing
	}
	empty := make(chan minio.ObjectInfo)
	close(empty)
	return empty
}

func (c *Client) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return c.Called(ctx, bucket, key, opts).Error(0)
}
