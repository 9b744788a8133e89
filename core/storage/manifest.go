package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"file-hasher/core/manifest"

	"github.com/minio/minio-go/v7"
)

// ManifestContentType is the content type manifests are uploaded with.
const ManifestContentType = "text/plain; charset=utf-8"

// ObjectKey joins the configured prefix and a manifest name.
func ObjectKey(prefix, name string) string {
	name = strings.TrimPrefix(name, "/")
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	return path.Join(prefix, name)
}

// EnsureBucket creates the bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// PutManifest serializes m and uploads it under key.
func PutManifest(ctx context.Context, client Client, bucket, key string, m *manifest.Manifest) error {
	if err := EnsureBucket(ctx, client, bucket); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := manifest.Serialize(&buf, m); err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}

	_, err := client.PutObject(ctx, bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: ManifestContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload manifest %s: %w", key, err)
	}
	return nil
}

// GetManifest downloads and parses the manifest stored under key.
func GetManifest(ctx context.Context, client Client, bucket, key string) (*manifest.Manifest, []*manifest.ParseError, error) {
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get manifest %s: %w", key, err)
	}
	defer obj.Close()

	m, warnings, err := manifest.Parse(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest %s: %w", key, err)
	}
	return m, warnings, nil
}

// ListManifests returns the keys of every object under prefix, sorted.
func ListManifests(ctx context.Context, client Client, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list manifests: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeleteManifest removes the manifest stored under key.
func DeleteManifest(ctx context.Context, client Client, bucket, key string) error {
	if err := client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete manifest %s: %w", key, err)
	}
	return nil
}
