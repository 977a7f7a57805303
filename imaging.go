package kittyimg

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultBoundingBox is the width and height an image is fitted into when none is given
const DefaultBoundingBox = 600

// Request describes how an image read from a path should be sized.
// Zero Width or Height means unspecified.
type Request struct {
	Width  int
	Height int
	// Stretch disables aspect ratio preservation: the image is resized to exactly
	// Width x Height, an unspecified side following the other one's scale.
	Stretch bool
}

func (r Request) validate() error {
	if r.Width < 0 {
		return fmt.Errorf("width must be positive, got %d", r.Width)
	}
	if r.Height < 0 {
		return fmt.Errorf("height must be positive, got %d", r.Height)
	}
	return nil
}

// Imager decodes and resizes images, producing PNG bytes ready for transmission
type Imager interface {
	Prepare(path string, req Request) ([]byte, error)
}

// ImagerFunc adapts a function to the Imager interface
type ImagerFunc func(path string, req Request) ([]byte, error)

// Prepare calls f(path, req)
func (f ImagerFunc) Prepare(path string, req Request) ([]byte, error) {
	return f(path, req)
}

// PNGImager is the default Imager
type PNGImager struct{}

// Prepare decodes path, sizes it according to req and re-encodes it as PNG
func (PNGImager) Prepare(path string, req Request) ([]byte, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return EncodePNG(Scale(img, req))
}

// DecodeFile decodes any registered image format (PNG, JPEG, GIF, BMP, TIFF, WebP)
func DecodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Scale sizes img according to req
func Scale(img image.Image, req Request) image.Image {
	if req.Stretch {
		if req.Width <= 0 && req.Height <= 0 {
			return img
		}
		// nfnt/resize treats a zero side as "keep the aspect ratio"
		return resizeImage(img, uint(max(req.Width, 0)), uint(max(req.Height, 0)))
	}

	w, h := fitSize(img.Bounds(), req.Width, req.Height)
	return resizeImage(img, uint(w), uint(h))
}

// fitSize returns the largest size with the aspect ratio of bounds that fits
// in the box, growing the image when it is smaller than the box.
func fitSize(bounds image.Rectangle, boxW, boxH int) (int, int) {
	if boxW <= 0 {
		boxW = DefaultBoundingBox
	}
	if boxH <= 0 {
		boxH = DefaultBoundingBox
	}
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return srcW, srcH
	}

	ratio := math.Min(float64(boxW)/float64(srcW), float64(boxH)/float64(srcH))
	w := max(int(math.Round(float64(srcW)*ratio)), 1)
	h := max(int(math.Round(float64(srcH)*ratio)), 1)
	return w, h
}

// resizeImage scales img to width x height; a zero side follows the aspect ratio
func resizeImage(img image.Image, width, height uint) image.Image {
	b := img.Bounds()
	if width == uint(b.Dx()) && height == uint(b.Dy()) {
		return img
	}
	return resize.Resize(width, height, img, interpolation(b, width, height))
}

// interpolation picks bilinear when shrinking to under a quarter of the pixels
func interpolation(src image.Rectangle, width, height uint) resize.InterpolationFunction {
	if width > 0 && height > 0 && uint(src.Dx()*src.Dy()) > 4*width*height {
		return resize.Bilinear
	}
	return resize.Lanczos3
}
