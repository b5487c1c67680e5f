package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/artgallery/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadDrawing 处理作品上传：file 为图片，data 为作品元数据 JSON
func (a *API) UploadDrawing(c *gin.Context) {
	if !a.parseUploadForm(c) {
		return
	}
	raw := strings.TrimSpace(c.PostForm("data"))
	if raw == "" {
		respondError(c, http.StatusBadRequest, text(c, "data field is required", "缺少作品信息"))
		return
	}
	var payload drawingPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		respondError(c, http.StatusBadRequest, text(c, "data field must be valid JSON", "作品信息格式不正确"))
		return
	}

	if _, err := c.FormFile("file"); err != nil {
		respondError(c, http.StatusBadRequest, text(c, "image file is required", "未找到上传的图片"))
		return
	}
	file, ok := a.saveTempUpload(c, "file")
	if !ok {
		return
	}
	// 成功时 service 已删除临时文件，这里只兜底失败路径
	defer os.Remove(file.Path)

	drawing, err := a.uploads.Upload(c.Request.Context(), service.UploadInput{
		File:    file,
		Drawing: payload.toInput(),
	})
	if err != nil {
		respondServiceError(c, err, "failed to upload drawing", "上传作品失败")
		return
	}
	slog.Info("drawing uploaded", "admin", AdminEmail(c), "id", drawing.ID, "title", drawing.Title)
	c.JSON(http.StatusOK, drawing)
}

// SignUpload 返回客户端直传对象存储的签名地址
func (a *API) SignUpload(c *gin.Context) {
	fileName := strings.TrimSpace(c.Query("file_name"))
	fileType := strings.TrimSpace(c.Query("file_type"))
	if fileName == "" || fileType == "" {
		respondError(c, http.StatusBadRequest, text(c, "file_name and file_type are required", "缺少文件名或文件类型"))
		return
	}

	signed, err := a.uploads.SignUpload(c.Request.Context(), fileName, fileType)
	if err != nil {
		respondServiceError(c, err, "failed to sign upload", "生成上传签名失败")
		return
	}
	c.JSON(http.StatusOK, signed)
}

// parseUploadForm 在解析表单前限制请求体大小，超限直接返回 413。
// 上限在单文件上限之外留 1MB 给其它表单字段与 multipart 边界。
func (a *API) parseUploadForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUploadBytes+1<<20)
	err := c.Request.ParseMultipartForm(a.maxUploadBytes)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.respondTooLarge(c)
		return false
	}
	// 其它解析错误交给后续字段校验返回 400
	return true
}

func (a *API) respondTooLarge(c *gin.Context) {
	respondError(c, http.StatusRequestEntityTooLarge, text(c,
		fmt.Sprintf("file exceeds %d MB", a.maxUploadBytes>>20),
		fmt.Sprintf("文件超过 %d MB", a.maxUploadBytes>>20)))
}

// saveTempUpload 把表单文件落到临时目录，文件名使用 uuid 避免冲突
func (a *API) saveTempUpload(c *gin.Context, field string) (service.UploadFile, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, text(c, "image file is required", "未找到上传的图片"))
		return service.UploadFile{}, false
	}
	if header.Size > a.maxUploadBytes {
		a.respondTooLarge(c)
		return service.UploadFile{}, false
	}

	if err := os.MkdirAll(a.tempDir, 0o755); err != nil {
		slog.Error("create temp dir failed", "dir", a.tempDir, "error", err)
		respondError(c, http.StatusInternalServerError, text(c, "failed to store upload", "创建临时目录失败"))
		return service.UploadFile{}, false
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(a.tempDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(header, path); err != nil {
		slog.Error("save upload failed", "path", path, "error", err)
		respondError(c, http.StatusInternalServerError, text(c, "failed to store upload", "保存文件失败"))
		return service.UploadFile{}, false
	}

	return service.UploadFile{
		Path:     path,
		Filename: filepath.Base(header.Filename),
		Size:     header.Size,
	}, true
}
