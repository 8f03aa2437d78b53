package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Multipart transfer tuning. Fixed configuration, never request-controlled:
// uploads cut over from single-shot to multipart once the input crosses the
// part size, with at most partConcurrency parts in flight.
const (
	partSize        = 8 << 20 // 8 MiB
	partConcurrency = 4
)

// MinioStore implements ObjectStore using a MinIO (or any S3-compatible)
// backend reached over path-style addressing with v4 signatures.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a MinIO client for the given endpoint and returns a
// ready-to-use MinioStore. It performs no network call; reachability is
// checked separately through Health.
func NewMinioStore(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// Put streams reader to MinIO under key. Pass size -1 when the byte count is
// unknown; the client then uploads in partSize chunks without buffering the
// whole object.
func (s *MinioStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:           contentType,
		PartSize:              partSize,
		NumThreads:            partConcurrency,
		ConcurrentStreamParts: true,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, classify(err))
	}
	return nil
}

// Get opens the object at key. The stat round trip happens here so a missing
// key is reported before the caller commits to a response; the returned
// stream must be closed by the caller.
func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("get object %q: %w", key, classify(err))
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, fmt.Errorf("get object %q: %w", key, classify(err))
	}

	return obj, toObjectInfo(key, stat), nil
}

// Delete removes the object at key. MinIO's RemoveObject succeeds on absent
// keys, so existence is checked first to keep the not-found answer honest.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, classify(err))
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, classify(err))
	}
	return nil
}

// Stat fetches metadata for the object at key.
func (s *MinioStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, classify(err))
	}
	return toObjectInfo(key, stat), nil
}

// PresignPut produces a signed upload URL valid for expiry. The store
// validates the signature at use time; nothing is tracked server-side.
func (s *MinioStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, expiry)
	if err != nil {
		return nil, fmt.Errorf("presign put %q: %w", key, classify(err))
	}
	return u, nil
}

// PresignGet produces a signed download URL valid for expiry. The object must
// exist; disposition and content type overrides are carried as response-*
// query parameters and alter only the download response, not the object.
func (s *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration, contentDisposition, responseContentType string) (*url.URL, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("presign get %q: %w", key, classify(err))
	}

	params := make(url.Values)
	if contentDisposition != "" {
		params.Set("response-content-disposition", contentDisposition)
	}
	if responseContentType != "" {
		params.Set("response-content-type", responseContentType)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, params)
	if err != nil {
		return nil, fmt.Errorf("presign get %q: %w", key, classify(err))
	}
	return u, nil
}

// Health lists at most one object from the bucket, the cheapest round trip
// the store offers, and reports whether it succeeded.
func (s *MinioStore) Health(ctx context.Context) bool {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{MaxKeys: 1}) {
		if object.Err != nil {
			return false
		}
		break
	}
	return true
}

// classify maps a MinIO error to ErrNotFound when the store reports the key
// does not exist, and passes everything else through unchanged.
func classify(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

func toObjectInfo(key string, stat minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}
}
