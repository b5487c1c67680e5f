package service

import (
	"errors"
	"fmt"
)

var (
	// ErrDrawingNotFound 作品不存在
	ErrDrawingNotFound = errors.New("drawing not found")
	// ErrOrderingNotFound 排序记录尚未创建
	ErrOrderingNotFound = errors.New("drawing order not found")
	// ErrDanglingReference 排序记录引用了不存在的作品
	ErrDanglingReference = errors.New("drawing order references a missing drawing")
	ErrDrawingInvalid    = errors.New("invalid drawing input")
	ErrDrawingTitleTaken = errors.New("drawing title already exists")
	ErrImageMissing      = errors.New("image file is required")
	ErrImageInvalid      = errors.New("file is not a supported image")
	ErrGalleryInvalid    = errors.New("invalid gallery")
	// ErrUpstream 包装数据库或对象存储调用失败
	ErrUpstream = errors.New("upstream failure")
)

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

func invalidDrawing(reason string) error {
	return fmt.Errorf("%w: %s", ErrDrawingInvalid, reason)
}
