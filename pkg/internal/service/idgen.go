package service

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/oklog/ulid"
)

const maxIDNameLen = 120

// IDBuilder 生成 "<ulid>_<文件名>" 形式的 storage id，同一毫秒内单调递增.
type IDBuilder struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewIDBuilder() *IDBuilder {
	return &IDBuilder{entropy: ulid.Monotonic(crand.Reader, 0), now: time.Now}
}

// Build 实现 ingest.IDBuilder.
func (b *IDBuilder) Build(name, mimeType string) (string, error) {
	b.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(b.now()), b.entropy)
	b.mu.Unlock()

	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}

	return id.String() + "_" + sanitizeName(name, mimeType), nil
}

// sanitizeName 只保留字母、数字和 ._-，其他字符替换为 _；没有扩展名时按 MIME 补上.
func sanitizeName(name, mimeType string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if ext == "" {
		ext = extensionFor(mimeType)
	}

	clean := strings.Map(safeRune, stem)
	ext = strings.ToLower(strings.Map(safeRune, ext))

	if clean == "" {
		clean = "file"
	}

	if len(clean)+len(ext) > maxIDNameLen {
		clean = clean[:max(1, maxIDNameLen-len(ext))]
	}

	return clean + ext
}

func safeRune(r rune) rune {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return r
	case r == '.' || r == '-' || r == '_':
		return r
	default:
		return '_'
	}
}

// extensionFor 优先选择与子类型同名的扩展名，例如 image/png -> .png.
func extensionFor(mimeType string) string {
	exts, _ := mime.ExtensionsByType(mimeType)
	if len(exts) == 0 {
		return ""
	}

	_, sub, _ := strings.Cut(mimeType, "/")
	for _, e := range exts {
		if e == "."+sub {
			return e
		}
	}

	return exts[0]
}
