package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	descriptionEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	descriptionSanitizer = bluemonday.UGCPolicy()
)

// renderDescription 将作品描述的 Markdown 转为经过清洗的 HTML
func renderDescription(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := descriptionEngine.Convert([]byte(content), &buf); err != nil {
		return descriptionSanitizer.Sanitize(content)
	}
	return string(descriptionSanitizer.SanitizeBytes(buf.Bytes()))
}
