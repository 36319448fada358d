package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_ResizesToSquare(t *testing.T) {
	data := encodePNG(t, 100, 60)

	n, err := Normalize(data, 32)
	require.NoError(t, err)

	assert.Equal(t, int64(100), n.OriginalWidth)
	assert.Equal(t, int64(60), n.OriginalHeight)
	assert.Equal(t, int64(32), n.ResizedWidth)
	assert.Equal(t, int64(32), n.ResizedHeight)

	// Output is a decodable 32x32 PNG.
	decoded, format, err := image.Decode(bytes.NewReader(n.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 32, decoded.Bounds().Dx())
	assert.Equal(t, 32, decoded.Bounds().Dy())
}

func TestNormalize_JPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	n, err := Normalize(buf.Bytes(), 16)
	require.NoError(t, err)
	assert.Equal(t, int64(48), n.OriginalWidth)

	_, format, err := image.Decode(bytes.NewReader(n.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestNormalize_Errors(t *testing.T) {
	_, err := Normalize([]byte("not an image"), 32)
	assert.Error(t, err)

	_, err = Normalize(encodePNG(t, 4, 4), 0)
	assert.Error(t, err)
}
