package profile

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/jaxxstorm/relaygen/internal/model"
	"github.com/jaxxstorm/relaygen/internal/qr"
	"github.com/jaxxstorm/relaygen/internal/selector"
)

func relay(id int64, identifier, city string, load int) model.ServerRecord {
	return model.ServerRecord{
		ID:               id,
		Identifier:       identifier,
		Hostname:         identifier + ".nordvpn.com",
		Station:          netip.AddrFrom4([4]byte{192, 0, 2, byte(id)}),
		City:             city,
		Load:             load,
		Online:           true,
		SupportsProtocol: true,
		P2P:              true,
		PublicKey:        "pub" + identifier,
	}
}

func TestSelectThenBuild(t *testing.T) {
	t.Parallel()

	catalog := []model.ServerRecord{
		relay(1, "kr53", "Seoul", 10),
		relay(2, "jp10", "Tokyo", 5),
	}
	candidates := selector.Select(catalog, model.FilterCriteria{Query: "", P2P: true})
	if len(candidates) != 2 || candidates[0].City != "Tokyo" || candidates[1].City != "Seoul" {
		t.Fatalf("unexpected selection: %+v", candidates)
	}

	prefs := model.UserPreferences{PrivateKey: "priv", DNS: "103.86.96.100", MTU: "1420"}
	p, err := Build(prefs, candidates[0])
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	lines := strings.Split(p.Document, "\n")
	endpoint := lines[len(lines)-1]
	if !strings.HasPrefix(endpoint, "Endpoint = ") || !strings.HasSuffix(endpoint, ":51820") {
		t.Fatalf("endpoint line=%q", endpoint)
	}
	if len(p.QR) == 0 || p.QRVersion == 0 {
		t.Fatalf("expected QR artifact")
	}
	if p.FileName != "nord-jp10.conf" || p.QRFileName != "nord-jp10.png" {
		t.Fatalf("file names=%q/%q", p.FileName, p.QRFileName)
	}
}

func TestBuildKeepsDocumentWhenQRFails(t *testing.T) {
	t.Parallel()

	prefs := model.UserPreferences{PrivateKey: strings.Repeat("k", qr.MaxPayloadBytes), DNS: "1.1.1.1", MTU: "1420"}
	p, err := Build(prefs, relay(3, "sg1", "Singapore", 1))
	if !errors.Is(err, qr.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if p.Document == "" || p.QR != nil {
		t.Fatalf("expected document without QR, got doc=%d qr=%d", len(p.Document), len(p.QR))
	}
}
