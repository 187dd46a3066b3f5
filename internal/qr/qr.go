// Package qr renders session ids as QR code images. The id is treated as an
// opaque string; decoding happens on the student's device.
package qr

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// EncodePNG returns a PNG of the given content. Size is in pixels per side;
// zero or negative picks the default.
func EncodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("empty content")
	}
	if size <= 0 {
		size = defaultSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
