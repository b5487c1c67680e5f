package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/artgallery/internal/service"
)

// flexString 兼容表单前端把尺寸写成数字或字符串的两种情况
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*s = flexString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("expected string or number, got %s", trimmed)
	}
	*s = flexString(number.String())
	return nil
}

// flexBool 接受 true/false 以及 "true"/"false"
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = flexBool(v)
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*b = flexBool(parsed)
	default:
		return fmt.Errorf("invalid boolean %s", trimmed)
	}
	return nil
}

type drawingPayload struct {
	Title       string     `json:"title"`
	Medium      string     `json:"medium"`
	Width       flexString `json:"width"`
	Height      flexString `json:"height"`
	IsBw        flexBool   `json:"isBw"`
	Description string     `json:"description"`
}

func (p drawingPayload) toInput() service.DrawingInput {
	return service.DrawingInput{
		Title:       p.Title,
		Medium:      p.Medium,
		Width:       string(p.Width),
		Height:      string(p.Height),
		IsBw:        bool(p.IsBw),
		Description: p.Description,
	}
}

// drawingUpdatePayload 中缺省字段保持原值
type drawingUpdatePayload struct {
	Title       *string     `json:"title"`
	Medium      *string     `json:"medium"`
	Width       *flexString `json:"width"`
	Height      *flexString `json:"height"`
	IsBw        *flexBool   `json:"isBw"`
	Description *string     `json:"description"`
}

func (p drawingUpdatePayload) toUpdate() service.DrawingUpdate {
	update := service.DrawingUpdate{
		Title:       p.Title,
		Medium:      p.Medium,
		Description: p.Description,
	}
	if p.Width != nil {
		width := string(*p.Width)
		update.Width = &width
	}
	if p.Height != nil {
		height := string(*p.Height)
		update.Height = &height
	}
	if p.IsBw != nil {
		isBw := bool(*p.IsBw)
		update.IsBw = &isBw
	}
	return update
}

// orderItem 可以是 id 数字、数字字符串，或带 id/_id 字段的作品对象
type orderItem uint

func (o *orderItem) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var object struct {
			ID       *flexString `json:"id"`
			LegacyID *flexString `json:"_id"`
		}
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return err
		}
		switch {
		case object.ID != nil:
			return o.parse(string(*object.ID))
		case object.LegacyID != nil:
			return o.parse(string(*object.LegacyID))
		default:
			return errors.New("order item is missing an id")
		}
	}

	var raw flexString
	if err := raw.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	return o.parse(string(raw))
}

func (o *orderItem) parse(raw string) error {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid drawing id %q", raw)
	}
	*o = orderItem(id)
	return nil
}

type reorderPayload struct {
	BW    []orderItem `json:"bw"`
	Color []orderItem `json:"color"`
}

func toIDs(items []orderItem) []uint {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, uint(item))
	}
	return ids
}

type loginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}
