// Package capture turns camera frames into still photos.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrInvalidDataURL is returned when a string is not a base64 data URL.
var ErrInvalidDataURL = errors.New("invalid data URL")

// Photo is a captured still image.
type Photo struct {
	Data        []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	CapturedAt  time.Time `json:"captured_at"`
}

// DataURL renders the photo as a data URL, the form the kiosk front end displays.
func (p *Photo) DataURL() string {
	return "data:" + p.ContentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// DecodeDataURL parses a base64 data URL ("data:image/png;base64,....") and
// returns the payload and its MIME type.
func DecodeDataURL(s string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, "", ErrInvalidDataURL
	}
	meta := strings.TrimPrefix(header, "data:")
	mime, encoding, _ := strings.Cut(meta, ";")
	if mime == "" {
		return nil, "", fmt.Errorf("%w: missing MIME type", ErrInvalidDataURL)
	}
	if encoding != "base64" {
		return nil, "", fmt.Errorf("%w: unsupported encoding %q", ErrInvalidDataURL, encoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	return data, mime, nil
}

// FitImage scales img down so that neither side exceeds maxSize, keeping the
// aspect ratio. Images already within bounds are returned unchanged.
func FitImage(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// NewPhoto encodes a frame as a JPEG photo, resizing it to fit maxSize.
func NewPhoto(img image.Image, maxSize, quality int, at time.Time) (*Photo, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, FitImage(img, maxSize), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return &Photo{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		CapturedAt:  at,
	}, nil
}

// DecodePhoto decodes raw image bytes (JPEG, PNG, BMP or WebP) into a JPEG photo.
func DecodePhoto(data []byte, maxSize, quality int, at time.Time) (*Photo, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewPhoto(img, maxSize, quality, at)
}
