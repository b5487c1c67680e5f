package handler

import (
	"github.com/artgallery/internal/service"
)

const defaultMaxUploadBytes int64 = 20 << 20

// Options 汇总构造 API 所需的服务与上传参数。
type Options struct {
	Drawings       *service.DrawingService
	Uploads        *service.UploadService
	Auth           *service.AuthService
	TempDir        string
	MaxUploadBytes int64
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	drawings       *service.DrawingService
	uploads        *service.UploadService
	auth           *service.AuthService
	tempDir        string
	maxUploadBytes int64
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = "temp"
	}
	maxUploadBytes := opts.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &API{
		drawings:       opts.Drawings,
		uploads:        opts.Uploads,
		auth:           opts.Auth,
		tempDir:        tempDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// MaxUploadBytes 供路由设置 multipart 内存上限
func (a *API) MaxUploadBytes() int64 {
	return a.maxUploadBytes
}
