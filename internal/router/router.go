package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/artgallery/internal/handler"
	"github.com/artgallery/internal/locale"
	"github.com/artgallery/internal/logging"
	"github.com/gin-gonic/gin"
)

// Options 描述路由层需要的外部参数。
type Options struct {
	Logger *slog.Logger
	// UploadDir 非空时以 UploadURLPath 对外提供本地存储的作品图片
	UploadDir     string
	UploadURLPath string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = api.MaxUploadBytes()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(gin.Recovery(), logging.RequestLogger(logger))

	if dir := strings.TrimSpace(opts.UploadDir); dir != "" {
		urlPath := strings.TrimSpace(opts.UploadURLPath)
		if urlPath == "" {
			urlPath = "/uploads"
		}
		r.Static("/"+strings.Trim(urlPath, "/"), dir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})
		apiGroup.POST("/login", api.Login)
		apiGroup.GET("/drawings/:gallery", api.ListDrawings)
		apiGroup.GET("/drawing/:id", api.GetDrawing)

		// 需要管理员 token 的接口
		admin := apiGroup.Group("")
		admin.Use(api.AuthRequired())
		{
			admin.POST("/drawings/reorder", api.ReorderDrawings)
			admin.PUT("/drawing/:id", api.UpdateDrawing)
			admin.DELETE("/drawing/:id", api.DeleteDrawing)
			admin.POST("/upload", api.UploadDrawing)
			admin.POST("/upload_s3", api.UploadDrawing)
			admin.GET("/sign-upload", api.SignUpload)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		language := locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language"))
		c.JSON(http.StatusNotFound, gin.H{"error": locale.Pick(language, "not found", "页面不存在")})
	})

	return r
}
