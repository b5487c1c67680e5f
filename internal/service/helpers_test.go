package service

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/artgallery/internal/db"
	"github.com/artgallery/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return gdb
}

// writeTempPNG 生成一张小 PNG 并返回路径
func writeTempPNG(t *testing.T, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	path := filepath.Join(t.TempDir(), name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create png: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return path
}

type stubStore struct {
	mu           sync.Mutex
	baseURL      string
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
	presignErr   error
	presignTTL   time.Duration
}

func newStubStore() *stubStore {
	return &stubStore{
		baseURL:      "https://drawings.example.com/",
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (s *stubStore) Put(_ context.Context, input storage.PutObjectInput) (storage.PutResult, error) {
	if s.putErr != nil {
		return storage.PutResult{}, s.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return storage.PutResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[input.Key] = data
	s.contentTypes[input.Key] = input.ContentType
	return storage.PutResult{Key: input.Key, Size: int64(len(data)), Location: s.PublicURL(input.Key)}, nil
}

func (s *stubStore) PresignPut(_ context.Context, key, _ string, ttl time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.presignTTL = ttl
	return "https://signed.example.com/" + key + "?X-Amz-Signature=abc", nil
}

func (s *stubStore) PublicURL(key string) string {
	return s.baseURL + key
}

func (s *stubStore) object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

type cachedListing struct {
	version int64
	items   []DrawingView
}

type memoryCache struct {
	mu          sync.Mutex
	version     int64
	items       map[Gallery]cachedListing
	hits        int
	invalidated int
	staleSets   int
	// beforeSet 在写回前执行，用于模拟读库与写回之间插入的写操作
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[Gallery]cachedListing{}}
}

func (c *memoryCache) Version(context.Context) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, true
}

func (c *memoryCache) Get(_ context.Context, version int64, gallery Gallery) ([]DrawingView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[gallery]
	if !ok || entry.version != version || version != c.version {
		return nil, false
	}
	c.hits++
	return entry.items, true
}

func (c *memoryCache) Set(_ context.Context, version int64, gallery Gallery, items []DrawingView) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		c.staleSets++
		return
	}
	c.items[gallery] = cachedListing{version: version, items: items}
}

func (c *memoryCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.items = map[Gallery]cachedListing{}
	c.invalidated++
}

func createDrawing(t *testing.T, gdb *gorm.DB, title string, isBw bool) db.Drawing {
	t.Helper()
	drawing := db.Drawing{Title: title, Medium: "ink", Width: 8, Height: 10, IsBw: isBw, URL: "https://drawings.example.com/" + title}
	if err := gdb.Create(&drawing).Error; err != nil {
		t.Fatalf("failed to create drawing: %v", err)
	}
	return drawing
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
