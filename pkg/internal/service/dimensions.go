package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register
	_ "image/jpeg" // register
	_ "image/png"  // register

	_ "golang.org/x/image/bmp"  // register
	_ "golang.org/x/image/tiff" // register
	_ "golang.org/x/image/webp" // register
)

// DimensionProber 只解析图片头部读取宽高.
type DimensionProber struct{}

// Probe 实现 ingest.DimensionProber.
func (DimensionProber) Probe(header []byte) (int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(header))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%s: invalid dimensions %dx%d", format, cfg.Width, cfg.Height)
	}

	return cfg.Width, cfg.Height, nil
}
