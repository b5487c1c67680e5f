package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore 把对象保存在本地目录，适合开发环境或单机部署。
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore 创建本地存储目录
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "web/static/uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSpace(baseURL)}, nil
}

// Dir 返回存储根目录
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, input PutObjectInput) (PutResult, error) {
	if err := ValidateKey(input.Key); err != nil {
		return PutResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(input.Key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return PutResult{}, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return PutResult{}, fmt.Errorf("create object file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, input.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return PutResult{}, fmt.Errorf("write object %s: %w", input.Key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return PutResult{}, fmt.Errorf("chmod object %s: %w", input.Key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return PutResult{}, fmt.Errorf("store object %s: %w", input.Key, err)
	}

	return PutResult{Key: input.Key, Size: written, Location: s.PublicURL(input.Key)}, nil
}

func (s *LocalStore) PresignPut(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

func (s *LocalStore) PublicURL(key string) string {
	return joinPublicURL(s.baseURL, key)
}
