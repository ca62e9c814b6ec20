package profile

import (
	"github.com/jaxxstorm/relaygen/internal/model"
	"github.com/jaxxstorm/relaygen/internal/qr"
	"github.com/jaxxstorm/relaygen/internal/wgconf"
)

// Profile holds both artifacts generated for one relay.
type Profile struct {
	Identifier string
	FileName   string
	QRFileName string
	Document   string
	QR         []byte
	QRVersion  int
}

// Build synthesizes the profile document and its QR code. When the QR code
// cannot be produced the returned Profile still carries the document.
func Build(prefs model.UserPreferences, server model.ServerRecord) (Profile, error) {
	p := Profile{
		Identifier: server.Identifier,
		FileName:   wgconf.FileName(server),
		QRFileName: wgconf.QRFileName(server),
		Document:   wgconf.Synthesize(prefs, server),
	}

	raster, err := qr.Encode(p.Document)
	if err != nil {
		return p, err
	}
	p.QR = raster.PNG
	p.QRVersion = raster.Version
	return p, nil
}
