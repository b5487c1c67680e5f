package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// DrawingOrderSingleton 是排序记录唯一允许的键值
const DrawingOrderSingleton = "default"

// IDList 以 JSON 文本形式持久化的作品 ID 序列
type IDList []uint

// Scan 实现 sql.Scanner
func (l *IDList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = IDList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan id list: unsupported type %T", value)
	}
	if len(raw) == 0 {
		*l = IDList{}
		return nil
	}

	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("scan id list: %w", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	*l = ids
	return nil
}

// Value 实现 driver.Valuer，空序列写成 "[]" 而不是 null
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]uint(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// DrawingOrder 保存两个作品集的展示顺序，全表只有一行
type DrawingOrder struct {
	gorm.Model
	Singleton string `gorm:"size:32;uniqueIndex;not null"`
	BW        IDList `gorm:"column:bw;type:text"`
	Color     IDList `gorm:"column:color;type:text"`
}

// TableName 自定义表名
func (DrawingOrder) TableName() string {
	return "drawing_orders"
}

// Sequence 返回指定作品集的顺序，缺失时返回空序列
func (o *DrawingOrder) Sequence(gallery string) IDList {
	var seq IDList
	switch gallery {
	case GalleryBW:
		seq = o.BW
	case GalleryColor:
		seq = o.Color
	}
	if seq == nil {
		return IDList{}
	}
	return seq
}

// SetSequence 覆盖指定作品集的顺序
func (o *DrawingOrder) SetSequence(gallery string, ids IDList) {
	if ids == nil {
		ids = IDList{}
	}
	switch gallery {
	case GalleryBW:
		o.BW = ids
	case GalleryColor:
		o.Color = ids
	}
}
