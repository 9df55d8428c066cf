package qr

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// PNG renders content as a QR code image.
func PNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

type ShareLink struct {
	URL    string `json:"url" example:"https://app.gymhub.io/register"`
	QRCode string `json:"qr_code" example:"iVBORw0KGgo..."`
}

// NewShareLink pairs a URL with its QR code as base64 PNG.
func NewShareLink(url string) (*ShareLink, error) {
	png, err := PNG(url, DefaultSize)
	if err != nil {
		return nil, err
	}
	return &ShareLink{
		URL:    url,
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}
