// Package imaging normalizes heterogeneous source images into the uniform
// representation stored in the lake: fixed square dimensions, PNG encoding.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"

	// Register decoders for every format the source datasets might carry.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Normalized holds a resized, PNG-encoded image plus its original dimensions.
type Normalized struct {
	Data           []byte
	OriginalWidth  int64
	OriginalHeight int64
	ResizedWidth   int64
	ResizedHeight  int64
}

// Normalize decodes data, resizes it to size x size, and re-encodes as PNG.
// Aspect ratio is not preserved: the training schema expects uniform tensors.
func Normalize(data []byte, size int) (*Normalized, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size %d", size)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	slog.Debug("normalizing image",
		"format", format,
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_size", size)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &Normalized{
		Data:           buf.Bytes(),
		OriginalWidth:  int64(bounds.Dx()),
		OriginalHeight: int64(bounds.Dy()),
		ResizedWidth:   int64(size),
		ResizedHeight:  int64(size),
	}, nil
}
