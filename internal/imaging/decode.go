package imaging

import (
	"image"
	"io"

	// Register decoders for the common raster formats the tool accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Decode reads an image in any registered raster format (JPEG, PNG, GIF).
func Decode(r io.Reader) (image.Image, error) {
	const op = "Decode"

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, NewImagingError(op, ErrInvalidImage, err.Error())
	}
	return img, nil
}
