// Package imageprep prepares raster images for OCR: decode, grayscale, and
// Otsu binarization.
//
// The result of Binarize is strictly black (0) and white (255). Binarizing an
// already binarized image returns an identical image.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Prepare decodes data and returns its binarized grayscale form.
func Prepare(data []byte) (*image.Gray, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Binarize(img), nil
}

// PreparePNG is Prepare followed by PNG encoding, the form OCR engines take.
func PreparePNG(data []byte) ([]byte, error) {
	gray, err := Prepare(data)
	if err != nil {
		return nil, err
	}
	return EncodePNG(gray)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Grayscale converts img to 8-bit luma. A *image.Gray input is copied.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Binarize converts img to grayscale and thresholds it at the Otsu level:
// pixels above the threshold become white, the rest black.
func Binarize(img image.Image) *image.Gray {
	gray := Grayscale(img)
	t := OtsuThreshold(Histogram(gray))
	for i, v := range gray.Pix {
		if v > t {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

// Histogram counts pixels per intensity level.
func Histogram(gray *image.Gray) [256]int {
	var h [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, v := range row {
			h[v]++
		}
	}
	return h
}

// OtsuThreshold returns the level t that maximizes the between-class
// variance of {<= t} and {> t}, which is the same as minimizing the
// intra-class variance. Ties resolve to the lowest t, so a two-level image
// always splits between its two levels.
func OtsuThreshold(hist [256]int) uint8 {
	var total, sumAll float64
	for i, n := range hist {
		total += float64(n)
		sumAll += float64(i) * float64(n)
	}
	if total == 0 {
		return 0
	}

	var (
		best    uint8
		bestVar = -1.0
		wB      float64
		sumB    float64
	)
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = uint8(t)
		}
	}
	return best
}

// Equal reports whether two grayscale images have identical bounds and pixels.
func Equal(a, b *image.Gray) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.GrayAt(x, y) != b.GrayAt(x, y) {
				return false
			}
		}
	}
	return true
}
