// Package imaging provides the pure image transforms used by the OCR pipeline:
// splitting an image into overlapping horizontal stripes and encoding stripes
// into base64 JPEG data URLs for transmission to a vision model.
//
// Splitting is deterministic geometry with no side effects. Stripes are cut
// full-width, in top-to-bottom order, with a configurable overlap so that a
// line of text sitting on a cut boundary is fully visible in both adjacent
// stripes.
package imaging

import (
	"fmt"
	"image"
	"image/draw"
)

// Stripe is one horizontal band of a source image.
type Stripe struct {
	// Index is the 0-based position of the stripe, counted from the top.
	Index int

	// Top and Bottom are the stripe's row bounds relative to the source
	// image, as a half-open interval [Top, Bottom).
	Top    int
	Bottom int

	// Image is the cropped stripe content, full source width.
	Image image.Image
}

// Height returns the stripe height in pixels.
func (s Stripe) Height() int {
	return s.Bottom - s.Top
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SplitHorizontal cuts img into count horizontal stripes with the given
// overlap fraction, returned in top-to-bottom order.
//
// The base stripe height is imageHeight/count (floor). Each stripe extends
// overlap*baseHeight (floor) rows beyond each cut line, clamped to the image
// at the top and bottom edges, so the union of all stripes always covers the
// full image height with no gaps.
func SplitHorizontal(img image.Image, count int, overlap float64) ([]Stripe, error) {
	const op = "SplitHorizontal"

	if count < 1 {
		return nil, NewImagingError(op, ErrInvalidStripeCount, fmt.Sprintf("count=%d", count))
	}
	if overlap < 0 || overlap > 1 {
		return nil, NewImagingError(op, ErrInvalidOverlap, fmt.Sprintf("overlap=%g", overlap))
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, NewImagingError(op, ErrInvalidImage, fmt.Sprintf("dimensions %dx%d", width, height))
	}
	if count > height {
		// More stripes than pixel rows would make the base stripe height
		// zero and leave every non-final stripe empty.
		return nil, NewImagingError(op, ErrInvalidStripeCount,
			fmt.Sprintf("count=%d exceeds image height %d", count, height))
	}

	stripeHeight := height / count
	overlapHeight := int(float64(stripeHeight) * overlap)

	stripes := make([]Stripe, 0, count)
	for i := 0; i < count; i++ {
		upper := i*stripeHeight - overlapHeight
		if upper < 0 {
			upper = 0
		}
		lower := (i+1)*stripeHeight + overlapHeight
		if lower > height || i == count-1 {
			// The last stripe always clamps to the image bottom so the
			// stripes cover every row even when count does not divide
			// the height evenly.
			lower = height
		}

		rect := image.Rect(bounds.Min.X, bounds.Min.Y+upper, bounds.Max.X, bounds.Min.Y+lower)
		stripes = append(stripes, Stripe{
			Index:  i,
			Top:    upper,
			Bottom: lower,
			Image:  crop(img, rect),
		})
	}

	return stripes, nil
}

// crop extracts rect from img, sharing pixel memory when the source supports
// sub-imaging and copying otherwise.
func crop(img image.Image, rect image.Rectangle) image.Image {
	if sub, ok := img.(subImager); ok {
		return sub.SubImage(rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
