package db

import "gorm.io/gorm"

const (
	// GalleryBW 黑白作品集
	GalleryBW = "bw"
	// GalleryColor 彩色作品集
	GalleryColor = "color"
)

// Drawing 定义单幅作品模型
type Drawing struct {
	gorm.Model
	Title       string  `gorm:"size:255;uniqueIndex;not null" json:"title"`
	URL         string  `json:"url"`
	Medium      string  `gorm:"not null" json:"medium"`
	Width       float64 `gorm:"not null" json:"width"`
	Height      float64 `gorm:"not null" json:"height"`
	IsBw        bool    `gorm:"not null;default:false" json:"isBw"`
	Description string  `gorm:"type:text" json:"description"`
}

// Gallery 返回作品所属的作品集
func (d Drawing) Gallery() string {
	if d.IsBw {
		return GalleryBW
	}
	return GalleryColor
}
