package preview

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

const (
	canvasWidth  = 1200
	canvasHeight = 800
	cornerRadius = 20
	mapInset     = 15
	jpegQuality  = 80

	// Photos narrower than this aspect ratio use the portrait layout.
	portraitAspect = 0.8

	bgColor = "#7c65c1"
)

// Compose renders the social-preview canvas: the photo scaled to a
// 1200x800 frame with the minimap overlaid top-right with rounded
// corners. Landscape photos cover the whole canvas; portrait photos
// sit rounded and centered on a solid background, left of the map.
// Returns JPEG bytes.
func Compose(photoBytes []byte, mapImg image.Image) ([]byte, error) {
	// Auto-orientation normalizes EXIF-rotated phone photos before any
	// aspect-ratio decision is made.
	photo, err := imaging.Decode(bytes.NewReader(photoBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	roundedMap := roundCorners(mapImg, cornerRadius)
	mapSize := roundedMap.Bounds().Dx()
	mapLeft := canvasWidth - mapSize - mapInset

	bounds := photo.Bounds()
	aspect := float64(bounds.Dx()) / float64(max(bounds.Dy(), 1))

	dc := gg.NewContext(canvasWidth, canvasHeight)

	if aspect < portraitAspect {
		photoHeight := int(float64(canvasHeight) * 0.95)
		photoWidth := int(float64(photoHeight) * aspect)

		resized := imaging.Resize(photo, photoWidth, photoHeight, imaging.Lanczos)
		rounded := roundCorners(resized, cornerRadius)

		// Center the photo in the free space left of the minimap.
		photoLeft := (mapLeft - photoWidth) / 2
		photoTop := (canvasHeight - photoHeight) / 2

		dc.SetHexColor(bgColor)
		dc.Clear()
		dc.DrawImage(rounded, photoLeft, photoTop)
	} else {
		filled := imaging.Fill(photo, canvasWidth, canvasHeight, imaging.Center, imaging.Lanczos)
		dc.DrawImage(filled, 0, 0)
	}

	dc.DrawImage(roundedMap, mapLeft, mapInset)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dc.Image(), imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func roundCorners(img image.Image, radius float64) image.Image {
	bounds := img.Bounds()
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawRoundedRectangle(0, 0, float64(bounds.Dx()), float64(bounds.Dy()), radius)
	dc.Clip()
	dc.DrawImage(img, 0, 0)
	return dc.Image()
}
