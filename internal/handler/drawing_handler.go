package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/artgallery/internal/service"
	"github.com/gin-gonic/gin"
)

// ListDrawings 返回 bw、color 或 all 作品集，顺序与排序记录一致。
func (a *API) ListDrawings(c *gin.Context) {
	gallery, err := service.ParseGallery(c.Param("gallery"))
	if err != nil {
		respondError(c, http.StatusBadRequest, text(c, "gallery must be bw, color or all", "作品集只能是 bw、color 或 all"))
		return
	}

	if gallery == service.GalleryAll {
		listing, err := a.drawings.ListAll(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "failed to load drawings", "获取作品集失败")
			return
		}
		c.JSON(http.StatusOK, listing)
		return
	}

	items, err := a.drawings.ListGallery(c.Request.Context(), gallery)
	if err != nil {
		respondServiceError(c, err, "failed to load drawings", "获取作品集失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{string(gallery): items})
}

// GetDrawing returns a single drawing.
func (a *API) GetDrawing(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, text(c, "invalid drawing id", "作品ID无效"))
		return
	}

	drawing, err := a.drawings.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "failed to load drawing", "获取作品失败")
		return
	}
	c.JSON(http.StatusOK, drawing)
}

// UpdateDrawing 接收 multipart 表单：drawing 字段为 JSON，file 可选。
func (a *API) UpdateDrawing(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, text(c, "invalid drawing id", "作品ID无效"))
		return
	}

	if !a.parseUploadForm(c) {
		return
	}
	raw := strings.TrimSpace(c.PostForm("drawing"))
	if raw == "" {
		respondError(c, http.StatusBadRequest, text(c, "drawing field is required", "缺少作品信息"))
		return
	}
	var payload drawingUpdatePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		respondError(c, http.StatusBadRequest, text(c, "drawing field must be valid JSON", "作品信息格式不正确"))
		return
	}

	var file *service.UploadFile
	if _, err := c.FormFile("file"); err == nil {
		saved, ok := a.saveTempUpload(c, "file")
		if !ok {
			return
		}
		defer os.Remove(saved.Path)
		file = &saved
	}

	drawing, err := a.drawings.Update(c.Request.Context(), id, payload.toUpdate(), file)
	if err != nil {
		respondServiceError(c, err, "failed to update drawing", "更新作品失败")
		return
	}
	slog.Info("drawing updated", "admin", AdminEmail(c), "id", id, "image_replaced", file != nil)
	c.JSON(http.StatusOK, drawing)
}

// DeleteDrawing 删除作品并从排序中移除
func (a *API) DeleteDrawing(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, text(c, "invalid drawing id", "作品ID无效"))
		return
	}

	if err := a.drawings.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "failed to delete drawing", "删除作品失败")
		return
	}
	slog.Info("drawing deleted", "admin", AdminEmail(c), "id", id)
	c.JSON(http.StatusOK, gin.H{"message": text(c, "drawing deleted", "删除成功")})
}

// ReorderDrawings 用提交的完整列表覆盖两个作品集的顺序，不做去重
func (a *API) ReorderDrawings(c *gin.Context) {
	var payload reorderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, text(c, "invalid order payload", "排序参数不合法"))
		return
	}

	bw, color := toIDs(payload.BW), toIDs(payload.Color)
	if err := a.drawings.Reorder(c.Request.Context(), bw, color); err != nil {
		respondServiceError(c, err, "failed to save order", "保存排序失败")
		return
	}
	slog.Info("gallery order saved", "admin", AdminEmail(c), "bw", len(bw), "color", len(color))
	c.JSON(http.StatusOK, gin.H{"bw": bw, "color": color})
}
