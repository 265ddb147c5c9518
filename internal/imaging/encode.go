package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// JPEGQuality is the fixed compression level used for model payloads.
// Lower quality risks losing handwritten-stroke detail; higher quality
// inflates payload size and latency.
const JPEGQuality = 90

// EncodeJPEG normalizes img to 3-channel RGB and compresses it as JPEG at
// the fixed quality level. Grayscale input is widened to RGB; transparency
// is flattened against a white background. The output is deterministic for
// identical input.
func EncodeJPEG(img image.Image) ([]byte, error) {
	const op = "EncodeJPEG"

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, NewImagingError(op, ErrEncodingFailed, "zero-dimension image")
	}

	rgb := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgb, rgb.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgb, rgb.Bounds(), img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, NewImagingError(op, ErrEncodingFailed, err.Error())
	}

	return buf.Bytes(), nil
}

// DataURL encodes img as a base64 JPEG data URL suitable for embedding in a
// vision model request.
func DataURL(img image.Image) (string, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
