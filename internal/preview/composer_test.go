package preview

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func solidImage(width, height int, fill color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func decodePreview(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return img
}

func TestCompose(t *testing.T) {
	t.Parallel()

	mapImg := solidImage(280, 280, color.RGBA{R: 40, G: 160, B: 90, A: 255})

	t.Run("landscape photo covers the canvas", func(t *testing.T) {
		t.Parallel()

		red := color.RGBA{R: 220, G: 40, B: 40, A: 255}
		photo := encodeJPEG(t, solidImage(1600, 900, red))

		out, err := Compose(photo, mapImg)
		require.NoError(t, err)

		img := decodePreview(t, out)
		require.Equal(t, 1200, img.Bounds().Dx())
		require.Equal(t, 800, img.Bounds().Dy())

		// Bottom-left is photo, far from the minimap overlay.
		r, g, b, _ := img.At(10, 780).RGBA()
		require.Greater(t, r>>8, uint32(180))
		require.Less(t, g>>8, uint32(90))
		require.Less(t, b>>8, uint32(90))
	})

	t.Run("portrait photo sits on the brand background", func(t *testing.T) {
		t.Parallel()

		photo := encodeJPEG(t, solidImage(600, 1200, color.RGBA{R: 220, G: 40, B: 40, A: 255}))

		out, err := Compose(photo, mapImg)
		require.NoError(t, err)

		img := decodePreview(t, out)
		require.Equal(t, 1200, img.Bounds().Dx())
		require.Equal(t, 800, img.Bounds().Dy())

		// Top-left corner is uncovered background, not photo.
		r, g, b, _ := img.At(2, 2).RGBA()
		require.InDelta(t, 0x7c, int(r>>8), 12)
		require.InDelta(t, 0x65, int(g>>8), 12)
		require.InDelta(t, 0xc1, int(b>>8), 12)
	})

	t.Run("minimap lands top-right", func(t *testing.T) {
		t.Parallel()

		photo := encodeJPEG(t, solidImage(1600, 900, color.RGBA{R: 220, G: 40, B: 40, A: 255}))

		out, err := Compose(photo, mapImg)
		require.NoError(t, err)
		img := decodePreview(t, out)

		// Center of the minimap region: 15px inset, 280px wide.
		_, g, _, _ := img.At(1200-15-140, 15+140).RGBA()
		require.Greater(t, g>>8, uint32(120))
	})

	t.Run("garbage input fails decode", func(t *testing.T) {
		t.Parallel()

		_, err := Compose([]byte("not an image"), mapImg)
		require.Error(t, err)
	})
}
