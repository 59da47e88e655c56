package photos

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"image"
	"image/jpeg"
	"math"

	"braces.dev/errtrace"
	"golang.org/x/image/draw"
)

// Approximate pixel count of the small rendition of each image (about 800x600).
const _smallPixelCount = 480_000

// JPEG quality for the small renditions.
const _smallQuality = 80

// Derivative is the scaled-down rendition of a full photo,
// kept in memory and served for grid and preview views.
type Derivative struct {
	Width  int
	Height int

	// Hash of Data, used for cache busting.
	Hash string

	// Data is the JPEG-encoded image.
	Data []byte
}

// makeDerivative decodes a full JPEG image and produces
// its small rendition.
// Images already at or under the target pixel count
// are re-encoded without scaling.
func makeDerivative(data []byte) (*Derivative, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errtrace.Errorf("decode source image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if pixels := width * height; pixels > _smallPixelCount {
		scale := math.Sqrt(_smallPixelCount / float64(pixels))
		width = int(float64(width) * scale)
		height = int(float64(height) * scale)

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: _smallQuality}); err != nil {
		return nil, errtrace.Errorf("encode small image: %w", err)
	}

	encoded := buf.Bytes()
	return &Derivative{
		Width:  width,
		Height: height,
		Hash:   hashBytes(encoded),
		Data:   encoded,
	}, nil
}

// hashBytes returns the URL-safe base64 form of the data's SHA-256 hash.
// Image URLs embed it so that the images can be cached forever:
// a changed image gets a changed URL.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
