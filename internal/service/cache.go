package service

import "context"

// GalleryCache 缓存作品集列表的解析结果，任何写操作后整体失效。
//
// 缓存按代数隔离：读取前先取 Version，写回时带上同一代数，
// Invalidate 推进代数后旧代数的写回不会再被读到。
// 实现应把读取错误当作未命中处理。
type GalleryCache interface {
	// Version 返回当前代数，ok 为 false 表示缓存暂不可用
	Version(ctx context.Context) (version int64, ok bool)
	Get(ctx context.Context, version int64, gallery Gallery) ([]DrawingView, bool)
	Set(ctx context.Context, version int64, gallery Gallery, items []DrawingView)
	Invalidate(ctx context.Context)
}

func invalidate(ctx context.Context, cache GalleryCache) {
	if cache != nil {
		cache.Invalidate(context.WithoutCancel(ctx))
	}
}
