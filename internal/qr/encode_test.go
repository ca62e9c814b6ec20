package qr

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
)

func decode(t *testing.T, data []byte) string {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("bitmap: %v", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE:  true,
		gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		t.Fatalf("qr decode: %v", err)
	}
	return result.GetText()
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	profile := "# Configuration for jp10.nordvpn.com (198.51.100.10) - Tokyo, Japan\n" +
		"[Interface]\nAddress = 10.5.0.2/32\nPrivateKey = yAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk=\n" +
		"DNS = 103.86.96.100\nMTU = 1420\n\n[Peer]\nPublicKey = xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg=\n" +
		"AllowedIPs = 0.0.0.0/0, ::/0\nEndpoint = jp10.nordvpn.com:51820"

	payloads := []string{
		"a",
		profile,
		strings.Repeat("relay", 200),
		strings.Repeat("a", MaxPayloadBytes),
	}
	for _, payload := range payloads {
		raster, err := Encode(payload)
		if err != nil {
			t.Fatalf("encode %d bytes: %v", len(payload), err)
		}
		got := decode(t, raster.PNG)
		if got != payload {
			t.Fatalf("round trip mismatch for %d bytes", len(payload))
		}
	}
}

func TestEncodeGrayscaleDimensions(t *testing.T) {
	t.Parallel()

	raster, err := Encode("a")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raster.Version != 1 {
		t.Fatalf("expected version 1, got %d", raster.Version)
	}

	img, err := png.Decode(bytes.NewReader(raster.PNG))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Fatalf("expected *image.Gray, got %T", img)
	}
	modules := 17 + 4*raster.Version + 2*QuietZone
	if want := modules * ModuleScale; img.Bounds().Dx() != want || img.Bounds().Dy() != want || raster.Size != want {
		t.Fatalf("size=%v raster.Size=%d want %d", img.Bounds(), raster.Size, want)
	}
}

func TestEncodeSmallestVersionGrows(t *testing.T) {
	t.Parallel()

	small, err := Encode("a")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	large, err := Encode(strings.Repeat("a", MaxPayloadBytes))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if large.Version != 40 {
		t.Fatalf("expected version 40 at capacity, got %d", large.Version)
	}
	if small.Version >= large.Version {
		t.Fatalf("versions %d >= %d", small.Version, large.Version)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Encode("deterministic payload")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := Encode("deterministic payload")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(a.PNG, b.PNG) {
		t.Fatalf("encode output differs between runs")
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	t.Parallel()

	_, err := Encode(strings.Repeat("a", MaxPayloadBytes+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := Encode(""); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}
