package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artgallery/internal/db"
	"github.com/artgallery/internal/storage"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DrawingView 是返回给前端的作品信息，附带展示用尺寸。
type DrawingView struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	Medium          string    `json:"medium"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	IsBw            bool      `json:"isBw"`
	Gallery         string    `json:"gallery"`
	Dimensions      string    `json:"dimensions"`
	Description     string    `json:"description,omitempty"`
	DescriptionHTML string    `json:"descriptionHtml,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// GalleryListing 聚合两个作品集，空作品集输出为 []
type GalleryListing struct {
	BW    []DrawingView `json:"bw"`
	Color []DrawingView `json:"color"`
}

func newDrawingView(d db.Drawing) DrawingView {
	return DrawingView{
		ID:              d.ID,
		Title:           d.Title,
		URL:             d.URL,
		Medium:          d.Medium,
		Width:           d.Width,
		Height:          d.Height,
		IsBw:            d.IsBw,
		Gallery:         d.Gallery(),
		Dimensions:      dimensionsLabel(d.Height, d.Width),
		Description:     d.Description,
		DescriptionHTML: renderDescription(d.Description),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// DrawingService 负责作品查询、排序与编辑。
type DrawingService struct {
	db       *gorm.DB
	ordering *OrderingService
	store    storage.ObjectStore
	cache    GalleryCache
}

// NewDrawingService 构造 DrawingService，cache 可以为 nil。
func NewDrawingService(gdb *gorm.DB, ordering *OrderingService, store storage.ObjectStore, cache GalleryCache) *DrawingService {
	return &DrawingService{db: gdb, ordering: ordering, store: store, cache: cache}
}

// Get 按 id 获取单个作品
func (s *DrawingService) Get(ctx context.Context, id uint) (*DrawingView, error) {
	drawing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newDrawingView(*drawing)
	return &view, nil
}

// ListGallery 按排序记录的顺序返回作品集中的作品。
// 任何一个 id 无法解析都会让整个请求失败。
func (s *DrawingService) ListGallery(ctx context.Context, gallery Gallery) ([]DrawingView, error) {
	if !gallery.single() {
		return nil, ErrGalleryInvalid
	}
	// 代数必须在读库之前取得，读库期间发生的写入会让这次写回失效
	var version int64
	cacheable := false
	if s.cache != nil {
		version, cacheable = s.cache.Version(ctx)
		if cacheable {
			if items, ok := s.cache.Get(ctx, version, gallery); ok {
				return items, nil
			}
		}
	}

	ids, err := s.ordering.GetOrdering(ctx, gallery)
	if err != nil {
		return nil, err
	}

	items := make([]DrawingView, 0, len(ids))
	if len(ids) > 0 {
		var drawings []db.Drawing
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&drawings).Error; err != nil {
			return nil, upstream("load drawings", err)
		}

		byID := make(map[uint]db.Drawing, len(drawings))
		for _, drawing := range drawings {
			byID[drawing.ID] = drawing
		}

		for _, id := range ids {
			drawing, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s gallery references drawing %d", ErrDanglingReference, gallery, id)
			}
			items = append(items, newDrawingView(drawing))
		}
	}

	if cacheable {
		s.cache.Set(ctx, version, gallery, items)
	}
	return items, nil
}

// ListAll 并发解析两个作品集，任一失败则整体失败。
func (s *DrawingService) ListAll(ctx context.Context) (GalleryListing, error) {
	var listing GalleryListing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.ListGallery(gctx, GalleryBW)
		listing.BW = items
		return err
	})
	g.Go(func() error {
		items, err := s.ListGallery(gctx, GalleryColor)
		listing.Color = items
		return err
	})
	if err := g.Wait(); err != nil {
		return GalleryListing{}, err
	}
	return listing, nil
}

// Reorder 用客户端提交的完整顺序覆盖两个作品集
func (s *DrawingService) Reorder(ctx context.Context, bw, color []uint) error {
	if err := s.ordering.Replace(ctx, bw, color); err != nil {
		return err
	}
	invalidate(ctx, s.cache)
	return nil
}

// Update 按白名单修改作品字段，可选地替换图片。
// 图片写入与数据库保存并发进行，任一失败即返回，不做补偿。
func (s *DrawingService) Update(ctx context.Context, id uint, update DrawingUpdate, file *UploadFile) (*DrawingView, error) {
	drawing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := update.merge(*drawing)
	if err != nil {
		return nil, err
	}
	if fields.Title != drawing.Title {
		if err := s.ensureTitleAvailable(ctx, fields.Title, drawing.ID); err != nil {
			return nil, err
		}
	}

	previousGallery := galleryFor(drawing.IsBw)
	fields.applyTo(drawing)

	var contentType, key string
	if file != nil {
		format, err := inspectImage(file.Path)
		if err != nil {
			return nil, err
		}
		contentType = "image/" + format
		key = StorageKey(fields.Title, file.Filename, format)
		if err := storage.ValidateKey(key); err != nil {
			return nil, invalidDrawing("title cannot be used as a storage key")
		}
		drawing.URL = s.store.PublicURL(key)
	}

	var g errgroup.Group
	if file != nil {
		g.Go(func() error {
			return storeImage(ctx, s.store, key, *file, contentType)
		})
	}
	g.Go(func() error {
		if err := s.db.WithContext(ctx).Save(drawing).Error; err != nil {
			return upstream("save drawing", err)
		}
		if next := galleryFor(drawing.IsBw); next != previousGallery {
			return s.ordering.Prepend(ctx, next, drawing.ID)
		}
		return nil
	})

	err = g.Wait()
	invalidate(ctx, s.cache)
	if err != nil {
		slog.Error("update drawing failed", "drawing_id", id, "error", err)
		return nil, err
	}

	view := newDrawingView(*drawing)
	return &view, nil
}

// Delete 软删除作品，并在同一事务中把它从排序记录中移除。
func (s *DrawingService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var drawing db.Drawing
		if err := tx.First(&drawing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDrawingNotFound
			}
			return upstream("find drawing", err)
		}
		if err := tx.Delete(&drawing).Error; err != nil {
			return upstream("delete drawing", err)
		}
		return s.ordering.removeTx(tx, id)
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache)
	return nil
}

func (s *DrawingService) find(ctx context.Context, id uint) (*db.Drawing, error) {
	var drawing db.Drawing
	if err := s.db.WithContext(ctx).First(&drawing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrawingNotFound
		}
		return nil, upstream("find drawing", err)
	}
	return &drawing, nil
}

func (s *DrawingService) ensureTitleAvailable(ctx context.Context, title string, selfID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&db.Drawing{}).
		Where("title = ? AND id <> ?", title, selfID).
		Count(&count).Error; err != nil {
		return upstream("check drawing title", err)
	}
	if count > 0 {
		return ErrDrawingTitleTaken
	}
	return nil
}
