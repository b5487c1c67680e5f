package service

import (
	"strings"

	"github.com/artgallery/internal/db"
)

// Gallery 标识作品集分区
type Gallery string

const (
	GalleryBW    Gallery = db.GalleryBW
	GalleryColor Gallery = db.GalleryColor
	// GalleryAll 仅用于查询，同时返回两个分区
	GalleryAll Gallery = "all"
)

// ParseGallery 解析路由中的作品集名称。
func ParseGallery(raw string) (Gallery, error) {
	switch Gallery(strings.ToLower(strings.TrimSpace(raw))) {
	case GalleryBW:
		return GalleryBW, nil
	case GalleryColor:
		return GalleryColor, nil
	case GalleryAll:
		return GalleryAll, nil
	default:
		return "", ErrGalleryInvalid
	}
}

func galleryFor(isBw bool) Gallery {
	if isBw {
		return GalleryBW
	}
	return GalleryColor
}

func (g Gallery) other() Gallery {
	if g == GalleryBW {
		return GalleryColor
	}
	return GalleryBW
}

func (g Gallery) single() bool {
	return g == GalleryBW || g == GalleryColor
}
