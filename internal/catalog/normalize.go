package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/jaxxstorm/relaygen/internal/model"
)

const (
	// TargetProtocol is the technology identifier advertised by WireGuard relays.
	TargetProtocol = "wireguard_udp"
	PublicKeyField = "public_key"
	P2PGroup       = "legacy_p2p"
	StatusOnline   = "online"
)

var (
	ErrInvalidAddress    = errors.New("invalid station address")
	ErrMalformedHostname = errors.New("malformed hostname")
)

// DropFunc is called for every entry NormalizeCatalog discards.
type DropFunc func(raw model.RawCatalogEntry, err error)

func Normalize(raw model.RawCatalogEntry) (model.ServerRecord, error) {
	station, err := netip.ParseAddr(strings.TrimSpace(raw.Station))
	if err != nil || !station.Is4() {
		return model.ServerRecord{}, fmt.Errorf("%w: %q", ErrInvalidAddress, raw.Station)
	}

	identifier, err := hostLabel(raw.Hostname)
	if err != nil {
		return model.ServerRecord{}, err
	}

	country, code, city := location(raw.Locations)
	publicKey, supported := protocolKey(raw.Technologies)

	return model.ServerRecord{
		ID:               raw.ID,
		Name:             raw.Name,
		Hostname:         raw.Hostname,
		Station:          station,
		Load:             clampLoad(raw.Load),
		Online:           raw.Status == StatusOnline,
		Country:          country,
		CountryCode:      code,
		City:             city,
		PublicKey:        publicKey,
		SupportsProtocol: supported,
		P2P:              inGroup(raw.Groups, P2PGroup),
		Identifier:       identifier,
	}, nil
}

// NormalizeCatalog keeps catalog order and skips entries that fail to normalize.
func NormalizeCatalog(raw []model.RawCatalogEntry, drop DropFunc) []model.ServerRecord {
	out := make([]model.ServerRecord, 0, len(raw))
	for _, entry := range raw {
		record, err := Normalize(entry)
		if err != nil {
			if drop != nil {
				drop(entry, err)
			}
			continue
		}
		out = append(out, record)
	}
	return out
}

func hostLabel(hostname string) (string, error) {
	if hostname == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformedHostname)
	}
	label, _, _ := strings.Cut(hostname, ".")
	if label == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedHostname, hostname)
	}
	return label, nil
}

func location(locations []model.RawLocation) (country, code, city string) {
	if len(locations) == 0 || locations[0].Country == nil {
		return "", "", ""
	}
	c := locations[0].Country
	if c.City != nil {
		city = c.City.Name
	}
	return c.Name, c.Code, city
}

// protocolKey scans by identifier; the feed does not fix the order of either list.
func protocolKey(technologies []model.RawTechnology) (string, bool) {
	for _, tech := range technologies {
		if tech.Identifier != TargetProtocol {
			continue
		}
		for _, meta := range tech.Metadata {
			if meta.Name == PublicKeyField {
				return metadataString(meta.Value), true
			}
		}
		return "", true
	}
	return "", false
}

func metadataString(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return ""
	}
	return s
}

func inGroup(groups []model.RawGroup, identifier string) bool {
	for _, group := range groups {
		if group.Identifier == identifier {
			return true
		}
	}
	return false
}

func clampLoad(load int) int {
	switch {
	case load < 0:
		return 0
	case load > 100:
		return 100
	default:
		return load
	}
}
