package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	Level = qrcode.Medium
	// MaxPayloadBytes is the byte-mode capacity of a version 40 symbol at Level.
	MaxPayloadBytes = 2331
	// ModuleScale is the edge length in pixels of one module.
	ModuleScale = 8
	// QuietZone is the border width in modules, the minimum the format allows.
	QuietZone = 4
)

var (
	ErrPayloadTooLarge = errors.New("payload too large for QR symbol")
	ErrEmptyPayload    = errors.New("empty payload")
)

// Raster is a PNG encoded, 8-bit grayscale QR symbol.
type Raster struct {
	PNG     []byte
	Version int
	// Size is the image edge length in pixels.
	Size int
}

// Encode renders payload into the smallest symbol that holds it.
func Encode(payload string) (Raster, error) {
	if payload == "" {
		return Raster{}, ErrEmptyPayload
	}
	if len(payload) > MaxPayloadBytes {
		return Raster{}, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), MaxPayloadBytes)
	}

	code, err := qrcode.New(payload, Level)
	if err != nil {
		// The length check above should catch this first; the encoder has the final say.
		return Raster{}, fmt.Errorf("%w: %v", ErrPayloadTooLarge, err)
	}
	code.DisableBorder = true

	img := rasterize(code.Bitmap(), ModuleScale, QuietZone)
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return Raster{}, fmt.Errorf("encode png: %w", err)
	}

	return Raster{
		PNG:     buf.Bytes(),
		Version: code.VersionNumber,
		Size:    img.Bounds().Dx(),
	}, nil
}

func rasterize(modules [][]bool, scale, border int) *image.Gray {
	n := len(modules)
	edge := (n + 2*border) * scale
	img := image.NewGray(image.Rect(0, 0, edge, edge))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	for y, row := range modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			fillBlock(img, (x+border)*scale, (y+border)*scale, scale)
		}
	}
	return img
}

func fillBlock(img *image.Gray, x0, y0, scale int) {
	for y := y0; y < y0+scale; y++ {
		for x := x0; x < x0+scale; x++ {
			img.SetGray(x, y, color.Gray{Y: 0x00})
		}
	}
}
