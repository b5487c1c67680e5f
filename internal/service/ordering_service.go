package service

import (
	"context"
	"errors"

	"github.com/artgallery/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderingService 维护两个作品集唯一的展示顺序。
//
// 顺序保存在 drawing_orders 表的单行记录中，首次写入时通过
// ON CONFLICT DO NOTHING 懒创建，并发的首次写入不会产生第二行。
type OrderingService struct {
	db *gorm.DB
}

// NewOrderingService 构造 OrderingService
func NewOrderingService(gdb *gorm.DB) *OrderingService {
	return &OrderingService{db: gdb}
}

// GetOrdering 返回指定作品集的 ID 顺序；排序记录不存在时返回 ErrOrderingNotFound。
func (s *OrderingService) GetOrdering(ctx context.Context, gallery Gallery) ([]uint, error) {
	if !gallery.single() {
		return nil, ErrGalleryInvalid
	}

	var order db.DrawingOrder
	if err := s.db.WithContext(ctx).
		Where("singleton = ?", db.DrawingOrderSingleton).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderingNotFound
		}
		return nil, upstream("load drawing order", err)
	}

	seq := order.Sequence(string(gallery))
	ids := make([]uint, len(seq))
	copy(ids, seq)
	return ids, nil
}

// Prepend 将 id 插入作品集顺序的首位。
// 同一作品集内不去重；同一 id 会从另一作品集中移除。
func (s *OrderingService) Prepend(ctx context.Context, gallery Gallery, id uint) error {
	if !gallery.single() {
		return ErrGalleryInvalid
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.mutate(tx, func(order *db.DrawingOrder) {
			other := string(gallery.other())
			order.SetSequence(other, without(order.Sequence(other), id))

			current := order.Sequence(string(gallery))
			next := make(db.IDList, 0, len(current)+1)
			next = append(next, id)
			next = append(next, current...)
			order.SetSequence(string(gallery), next)
		})
	})
}

// Replace 用客户端提交的完整序列覆盖两个作品集的顺序，不校验 id 是否存在。
func (s *OrderingService) Replace(ctx context.Context, bw, color []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.mutate(tx, func(order *db.DrawingOrder) {
			order.SetSequence(db.GalleryBW, cloneIDs(bw))
			order.SetSequence(db.GalleryColor, cloneIDs(color))
		})
	})
}

// Remove 从两个作品集中移除 id 的所有出现。
func (s *OrderingService) Remove(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.removeTx(tx, id)
	})
}

func (s *OrderingService) removeTx(tx *gorm.DB, id uint) error {
	return s.mutate(tx, func(order *db.DrawingOrder) {
		order.SetSequence(db.GalleryBW, without(order.BW, id))
		order.SetSequence(db.GalleryColor, without(order.Color, id))
	})
}

// mutate 在事务内确保单例存在、加锁读取、修改并保存。
func (s *OrderingService) mutate(tx *gorm.DB, apply func(order *db.DrawingOrder)) error {
	seed := db.DrawingOrder{
		Singleton: db.DrawingOrderSingleton,
		BW:        db.IDList{},
		Color:     db.IDList{},
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "singleton"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return upstream("create drawing order", err)
	}

	var order db.DrawingOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("singleton = ?", db.DrawingOrderSingleton).
		First(&order).Error; err != nil {
		return upstream("lock drawing order", err)
	}

	apply(&order)

	if err := tx.Save(&order).Error; err != nil {
		return upstream("save drawing order", err)
	}
	return nil
}

func without(ids db.IDList, id uint) db.IDList {
	filtered := make(db.IDList, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	return filtered
}

func cloneIDs(ids []uint) db.IDList {
	cloned := make(db.IDList, len(ids))
	copy(cloned, ids)
	return cloned
}
