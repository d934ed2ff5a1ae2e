package storage

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize caps an uploaded image at 10 MiB.
const MaxImageSize = 10 << 20

var ErrInvalidImage = errors.New("upload a valid image")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a validated upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ValidateImage sniffs data and accepts JPEG, PNG, GIF and WebP.
// The declared filename is ignored.
func ValidateImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: the submitted file is empty", ErrInvalidImage)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidImage, MaxImageSize)
	}
	mt := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mt.String()]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, mt.String())
	}
	return &Image{Data: data, ContentType: mt.String(), Ext: ext}, nil
}
