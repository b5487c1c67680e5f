package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artgallery/internal/db"
	"github.com/artgallery/internal/storage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultSignedURLTTL = time.Hour

// UploadFile 指向 handler 落盘的临时文件
type UploadFile struct {
	Path     string
	Filename string
	Size     int64
}

// UploadInput 是一次上传的完整输入。
type UploadInput struct {
	File    UploadFile
	Drawing DrawingInput
}

// SignedUpload 描述客户端直传对象存储所需的信息。
type SignedUpload struct {
	SignedRequest string `json:"signedRequest"`
	URL           string `json:"url"`
	Key           string `json:"key"`
	ExpiresIn     int    `json:"expiresIn"`
}

// UploadService 协调图片写入对象存储与作品入库。
type UploadService struct {
	db           *gorm.DB
	ordering     *OrderingService
	store        storage.ObjectStore
	cache        GalleryCache
	signedURLTTL time.Duration
}

// NewUploadService 构造 UploadService，signedURLTTL 为 0 时使用一小时。
func NewUploadService(gdb *gorm.DB, ordering *OrderingService, store storage.ObjectStore, cache GalleryCache, signedURLTTL time.Duration) *UploadService {
	if signedURLTTL <= 0 {
		signedURLTTL = defaultSignedURLTTL
	}
	return &UploadService{
		db:           gdb,
		ordering:     ordering,
		store:        store,
		cache:        cache,
		signedURLTTL: signedURLTTL,
	}
}

// Upload 写入图片并按标题新建或覆盖作品，随后把作品 id 插入所属作品集的首位。
//
// 对象存储与数据库两个分支并发执行且互不回滚：存储成功而数据库失败会留下孤立对象，
// 反之作品的 url 会指向尚未写入的对象。返回第一个失败分支的错误。
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (*DrawingView, error) {
	fields, err := normalizeDrawingInput(input.Drawing)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.File.Path) == "" {
		return nil, ErrImageMissing
	}

	format, err := inspectImage(input.File.Path)
	if err != nil {
		return nil, err
	}
	key := StorageKey(fields.Title, input.File.Filename, format)
	if err := storage.ValidateKey(key); err != nil {
		return nil, invalidDrawing("title cannot be used as a storage key")
	}
	publicURL := s.store.PublicURL(key)

	var saved *db.Drawing
	var g errgroup.Group
	g.Go(func() error {
		return storeImage(ctx, s.store, key, input.File, "image/"+format)
	})
	g.Go(func() error {
		drawing, err := s.upsertByTitle(ctx, fields, publicURL)
		if err != nil {
			return err
		}
		if err := s.ordering.Prepend(ctx, galleryFor(drawing.IsBw), drawing.ID); err != nil {
			return err
		}
		saved = drawing
		return nil
	})

	err = g.Wait()
	invalidate(ctx, s.cache)
	if err != nil {
		slog.Error("upload drawing failed", "title", fields.Title, "key", key, "error", err)
		return nil, err
	}

	slog.Info("drawing uploaded", "drawing_id", saved.ID, "key", key, "gallery", saved.Gallery())
	view := newDrawingView(*saved)
	return &view, nil
}

// SignUpload 为客户端直传生成限时签名地址
func (s *UploadService) SignUpload(ctx context.Context, fileName, contentType string) (SignedUpload, error) {
	key := strings.Join(strings.Fields(fileName), "-")
	if key == "" {
		return SignedUpload{}, invalidDrawing("file name is required")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return SignedUpload{}, ErrImageInvalid
	}

	signed, err := s.store.PresignPut(ctx, key, contentType, s.signedURLTTL)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			return SignedUpload{}, err
		}
		return SignedUpload{}, upstream("presign upload", err)
	}

	return SignedUpload{
		SignedRequest: signed,
		URL:           s.store.PublicURL(key),
		Key:           key,
		ExpiresIn:     int(s.signedURLTTL / time.Second),
	}, nil
}

// upsertByTitle 同标题作品覆盖可变字段，否则新建；软删除的同名作品会被恢复。
func (s *UploadService) upsertByTitle(ctx context.Context, fields drawingFields, publicURL string) (*db.Drawing, error) {
	gdb := s.db.WithContext(ctx)

	var drawing db.Drawing
	err := gdb.Unscoped().Where("title = ?", fields.Title).First(&drawing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		drawing = db.Drawing{}
	case err != nil:
		return nil, upstream("find drawing by title", err)
	}

	fields.applyTo(&drawing)
	drawing.URL = publicURL
	drawing.DeletedAt = gorm.DeletedAt{}

	if drawing.ID == 0 {
		if err := gdb.Create(&drawing).Error; err != nil {
			return nil, upstream("create drawing", err)
		}
		return &drawing, nil
	}

	if err := gdb.Unscoped().Save(&drawing).Error; err != nil {
		return nil, upstream("save drawing", err)
	}
	return &drawing, nil
}

// StorageKey 把标题中的空白替换为连字符并附加原文件扩展名，
// 原文件没有扩展名时使用探测到的图片格式。
func StorageKey(title, filename, format string) string {
	slug := strings.Join(strings.Fields(title), "-")

	ext := filepath.Ext(filename)
	if ext == "" || ext == "." {
		switch format {
		case "":
			return slug
		case "jpeg":
			ext = ".jpg"
		default:
			ext = "." + format
		}
	}
	return slug + ext
}

// inspectImage 读取图片头部判断格式，非图片返回 ErrImageInvalid。
func inspectImage(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageMissing, err)
	}
	defer file.Close()

	_, format, err := image.DecodeConfig(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrImageInvalid, err)
	}
	return format, nil
}

// storeImage 写入对象存储，成功后删除本地临时文件。
func storeImage(ctx context.Context, store storage.ObjectStore, key string, file UploadFile, contentType string) error {
	body, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}

	size := file.Size
	if info, statErr := body.Stat(); statErr == nil {
		size = info.Size()
	}

	_, err = store.Put(ctx, storage.PutObjectInput{
		Key:         key,
		Body:        body,
		Size:        size,
		ContentType: contentType,
	})
	body.Close()
	if err != nil {
		return upstream("store image", err)
	}

	if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove temp upload", "path", file.Path, "error", err)
	}
	return nil
}
