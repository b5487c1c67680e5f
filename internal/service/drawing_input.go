package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/artgallery/internal/db"
)

// DrawingInput 描述上传作品时提交的元数据。
// Width/Height 以字符串接收，保存时转换为数值。
type DrawingInput struct {
	Title       string
	Medium      string
	Width       string
	Height      string
	IsBw        bool
	Description string
}

// DrawingUpdate 列出编辑作品时允许修改的字段，nil 表示保持不变
type DrawingUpdate struct {
	Title       *string
	Medium      *string
	Width       *string
	Height      *string
	IsBw        *bool
	Description *string
}

type drawingFields struct {
	Title       string
	Medium      string
	Width       float64
	Height      float64
	IsBw        bool
	Description string
}

func normalizeDrawingInput(input DrawingInput) (drawingFields, error) {
	fields := drawingFields{
		Title:       strings.TrimSpace(input.Title),
		Medium:      strings.ToLower(strings.TrimSpace(input.Medium)),
		IsBw:        input.IsBw,
		Description: strings.TrimSpace(input.Description),
	}
	if fields.Title == "" {
		return fields, invalidDrawing("title is required")
	}
	if fields.Medium == "" {
		return fields, invalidDrawing("medium is required")
	}

	var err error
	if fields.Width, err = parseDimension("width", input.Width); err != nil {
		return fields, err
	}
	if fields.Height, err = parseDimension("height", input.Height); err != nil {
		return fields, err
	}
	return fields, nil
}

// merge 把白名单字段覆盖到已有作品上，返回校验后的字段
func (u DrawingUpdate) merge(current db.Drawing) (drawingFields, error) {
	input := DrawingInput{
		Title:       current.Title,
		Medium:      current.Medium,
		Width:       formatDimension(current.Width),
		Height:      formatDimension(current.Height),
		IsBw:        current.IsBw,
		Description: current.Description,
	}
	if u.Title != nil {
		input.Title = *u.Title
	}
	if u.Medium != nil {
		input.Medium = *u.Medium
	}
	if u.Width != nil {
		input.Width = *u.Width
	}
	if u.Height != nil {
		input.Height = *u.Height
	}
	if u.IsBw != nil {
		input.IsBw = *u.IsBw
	}
	if u.Description != nil {
		input.Description = *u.Description
	}
	return normalizeDrawingInput(input)
}

func (f drawingFields) applyTo(drawing *db.Drawing) {
	drawing.Title = f.Title
	drawing.Medium = f.Medium
	drawing.Width = f.Width
	drawing.Height = f.Height
	drawing.IsBw = f.IsBw
	drawing.Description = f.Description
}

func parseDimension(name, raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, invalidDrawing(name + " is required")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, invalidDrawing(fmt.Sprintf("%s must be a positive number", name))
	}
	return value, nil
}

func formatDimension(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// dimensionsLabel 生成展示用尺寸，例如 10" x 8"
func dimensionsLabel(height, width float64) string {
	return fmt.Sprintf("%s\" x %s\"", formatDimension(height), formatDimension(width))
}
