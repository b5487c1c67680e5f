package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/artgallery/internal/locale"
	"github.com/artgallery/internal/service"
	"github.com/artgallery/internal/storage"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func requestLanguage(c *gin.Context) string {
	if lang := locale.NormalizeLanguage(c.Query("lang")); lang != "" {
		return lang
	}
	return locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language"))
}

// text 按请求语言挑选提示文案
func text(c *gin.Context, english, chinese string) string {
	return locale.Pick(requestLanguage(c), english, chinese)
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(c.Param(key))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// respondServiceError 把 service 层的哨兵错误映射为状态码。
func respondServiceError(c *gin.Context, err error, fallbackEN, fallbackZH string) {
	switch {
	case errors.Is(err, service.ErrDrawingNotFound):
		respondError(c, http.StatusNotFound, text(c, "drawing not found", "作品不存在"))
	case errors.Is(err, service.ErrOrderingNotFound):
		respondError(c, http.StatusNotFound, text(c, "drawing order not found", "尚未创建作品排序"))
	case errors.Is(err, service.ErrDanglingReference):
		respondError(c, http.StatusNotFound, text(c, "drawing order references a missing drawing", "排序中引用的作品不存在"))
	case errors.Is(err, service.ErrDrawingTitleTaken):
		respondError(c, http.StatusConflict, text(c, "a drawing with this title already exists", "作品标题已存在"))
	case errors.Is(err, service.ErrDrawingInvalid),
		errors.Is(err, service.ErrGalleryInvalid),
		errors.Is(err, storage.ErrInvalidKey):
		respondError(c, http.StatusBadRequest, text(c, err.Error(), "请求参数不合法"))
	case errors.Is(err, service.ErrImageMissing):
		respondError(c, http.StatusBadRequest, text(c, "image file is required", "请上传作品图片"))
	case errors.Is(err, service.ErrImageInvalid):
		respondError(c, http.StatusBadRequest, text(c, "file is not a supported image", "只允许上传图片文件"))
	case errors.Is(err, service.ErrCredentialsMissing):
		respondError(c, http.StatusBadRequest, text(c, "email and password are required", "请输入邮箱和密码"))
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, text(c, "invalid email or password", "邮箱或密码错误"))
	case errors.Is(err, service.ErrTokenInvalid):
		respondError(c, http.StatusUnauthorized, text(c, "invalid or expired token", "登录已失效"))
	case errors.Is(err, storage.ErrPresignUnsupported):
		respondError(c, http.StatusNotImplemented, text(c, "signed uploads are not supported", "当前存储不支持直传"))
	case errors.Is(err, service.ErrUpstream):
		slog.Error("upstream failure", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusBadGateway, text(c, fallbackEN, fallbackZH))
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, text(c, fallbackEN, fallbackZH))
	}
}
