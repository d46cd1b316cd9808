package service

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// TypeResolver 依次使用提示、扩展名、内容嗅探确定 MIME 类型.
type TypeResolver struct{}

// Resolve 实现 ingest.TypeResolver.
func (TypeResolver) Resolve(hint, name string, content []byte) string {
	if t := cleanMime(hint); t != "" && t != octetStream {
		return t
	}

	if ext := filepath.Ext(name); ext != "" {
		if t := cleanMime(mime.TypeByExtension(strings.ToLower(ext))); t != "" {
			return t
		}
	}

	if len(content) > 0 {
		return cleanMime(mimetype.Detect(content).String())
	}

	return octetStream
}

// cleanMime 去掉参数并转为小写.
func cleanMime(t string) string {
	base, _, _ := strings.Cut(t, ";")

	return strings.ToLower(strings.TrimSpace(base))
}
