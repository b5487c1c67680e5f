package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const (
	// DriverMinio 使用 S3 兼容的对象存储（AWS S3、MinIO 等）
	DriverMinio = "minio"
	// DriverLocal 将图片写入本地目录并由 gin 静态服务
	DriverLocal = "local"
)

var (
	// ErrPresignUnsupported 表示当前存储不支持直传签名
	ErrPresignUnsupported = errors.New("signed uploads are not supported by this storage")
	// ErrInvalidKey 表示对象键为空或越界
	ErrInvalidKey = errors.New("invalid object key")
)

// PutObjectInput 描述一次对象写入。
type PutObjectInput struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// PutResult 是写入成功后存储返回的信息。
type PutResult struct {
	Key      string `json:"key"`
	ETag     string `json:"etag,omitempty"`
	Size     int64  `json:"size"`
	Location string `json:"location"`
}

// ObjectStore 抽象图片所在的对象存储，所有写入均为公开可读。
type ObjectStore interface {
	Put(ctx context.Context, input PutObjectInput) (PutResult, error)
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

// Options 汇总各存储实现所需的配置。
type Options struct {
	Driver    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	BaseURL   string
	LocalDir  string
}

// New 按驱动名称构造对象存储。
func New(ctx context.Context, opts Options) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverMinio, "s3":
		return NewMinioStore(ctx, opts)
	case "", DriverLocal:
		return NewLocalStore(opts.LocalDir, opts.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
	}
}

// joinPublicURL 拼接公开访问地址，键按路径段转义。
func joinPublicURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	escaped := strings.Join(segments, "/")

	if base == "" {
		return escaped
	}
	if strings.HasSuffix(base, "/") {
		return base + escaped
	}
	return base + "/" + escaped
}

// ValidateKey 检查对象键非空且不会越出存储根目录
func ValidateKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." || segment == "." || segment == "" {
			return ErrInvalidKey
		}
	}
	return nil
}
