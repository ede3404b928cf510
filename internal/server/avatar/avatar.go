// Package avatar turns an uploaded profile picture into the stored form: a
// 250x250 PNG.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/image/draw"
)

// Size is the edge length of a stored avatar in pixels.
const Size = 250

// MaxPixels bounds the decoded raster of an upload.
const MaxPixels = 4096 * 4096

const field = "avatar"

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type Processor struct {
	maxBytes int64
}

func NewProcessor(maxBytes int64) *Processor {
	return &Processor{maxBytes: maxBytes}
}

// MaxBytes is the upload limit; transports use it to bound request bodies.
func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// Process validates an upload by name, size and content and re-encodes it.
// Every rejection is a *common.ValidationError on the "avatar" field.
func (p *Processor) Process(filename string, data []byte) ([]byte, error) {
	if !allowedExt[strings.ToLower(filepath.Ext(filename))] {
		return nil, common.NewValidationError(field, "please upload an image")
	}
	if len(data) == 0 {
		return nil, common.NewValidationError(field, "please upload an image")
	}
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil, common.NewValidationError(field, fmt.Sprintf("must be at most %d bytes", p.maxBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (format != "png" && format != "jpeg") {
		return nil, common.NewValidationError(field, "is not a valid image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, common.NewValidationError(field, "image dimensions are too large")
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || (format != "png" && format != "jpeg") {
		return nil, common.NewValidationError(field, "is not a valid image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
