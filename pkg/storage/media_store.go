package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore hosts video files and thumbnails. The content store keeps only
// the references returned from here, never raw bytes.
type MediaStore interface {
	PutVideo(ctx context.Context, key string, r io.Reader, size int64, filename string) error
	PutThumbnail(ctx context.Context, key string, r io.Reader, size int64, filename string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// VideoKey builds the object key for a video's media file.
func VideoKey(videoID, filename string) string {
	return "videos/" + videoID + "/" + path.Base(filename)
}

// ThumbnailKey builds the object key for a video's thumbnail.
func ThumbnailKey(videoID, filename string) string {
	return "thumbnails/" + videoID + "/" + path.Base(filename)
}

// MinioStore implements MediaStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// PutVideo uploads a video file.
func (m *MinioStore) PutVideo(ctx context.Context, key string, r io.Reader, size int64, filename string) error {
	return m.put(ctx, key, r, size, contentTypeFor(filename, "video/mp4"))
}

// PutThumbnail uploads a thumbnail image.
func (m *MinioStore) PutThumbnail(ctx context.Context, key string, r io.Reader, size int64, filename string) error {
	return m.put(ctx, key, r, size, contentTypeFor(filename, "image/jpeg"))
}

func (m *MinioStore) put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PresignGet generates a pre-signed GET URL for playback.
func (m *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func contentTypeFor(filename, fallback string) string {
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	if contentType == "" {
		return fallback
	}
	return contentType
}
