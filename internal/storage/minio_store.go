package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore 将图片写入 S3 兼容存储。
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore 连接存储并确保 bucket 存在。
func NewMinioStore(ctx context.Context, opts Options) (*MinioStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	bucket := strings.TrimSpace(opts.Bucket)
	if endpoint == "" || bucket == "" {
		return nil, errors.New("minio storage requires endpoint and bucket")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
		}
	} else {
		slog.Info("created storage bucket", "bucket", bucket)
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s/", scheme, endpoint, bucket)
	}

	return &MinioStore{client: client, bucket: bucket, baseURL: baseURL}, nil
}

// Put 以 public-read 权限写入对象。
func (s *MinioStore) Put(ctx context.Context, input PutObjectInput) (PutResult, error) {
	if err := ValidateKey(input.Key); err != nil {
		return PutResult{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, input.Key, input.Body, input.Size, minio.PutObjectOptions{
		ContentType:  input.ContentType,
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return PutResult{}, fmt.Errorf("put object %s: %w", input.Key, err)
	}

	return PutResult{
		Key:      info.Key,
		ETag:     info.ETag,
		Size:     info.Size,
		Location: s.PublicURL(info.Key),
	}, nil
}

// PresignPut 生成限时的直传地址。
func (s *MinioStore) PresignPut(ctx context.Context, key, _ string, ttl time.Duration) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	signed, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return signed.String(), nil
}

// PublicURL 返回对象的公开访问地址
func (s *MinioStore) PublicURL(key string) string {
	return joinPublicURL(s.baseURL, key)
}
