package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jaxxstorm/relaygen/internal/model"
)

func rawEntry() model.RawCatalogEntry {
	return model.RawCatalogEntry{
		ID:       101,
		Name:     "South Korea #53",
		Station:  "192.0.2.53",
		Hostname: "kr53.nordvpn.com",
		Load:     12,
		Status:   "online",
		Locations: []model.RawLocation{{Country: &model.RawCountry{
			Name: "South Korea",
			Code: "KR",
			City: &model.RawCity{Name: "Seoul"},
		}}},
		Technologies: []model.RawTechnology{
			{Identifier: "openvpn_udp"},
			{Identifier: "wireguard_udp", Metadata: []model.RawMetadata{
				{Name: "public_key", Value: json.RawMessage(`"pubkey="`)},
			}},
		},
		Groups: []model.RawGroup{{Identifier: "legacy_standard"}, {Identifier: "legacy_p2p"}},
	}
}

func TestNormalizeResolvesAllFields(t *testing.T) {
	t.Parallel()

	record, err := Normalize(rawEntry())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.Identifier != "kr53" {
		t.Fatalf("identifier=%q", record.Identifier)
	}
	if record.Station.String() != "192.0.2.53" {
		t.Fatalf("station=%s", record.Station)
	}
	if !record.Online || !record.P2P || !record.SupportsProtocol {
		t.Fatalf("flags not set: %+v", record)
	}
	if record.PublicKey != "pubkey=" {
		t.Fatalf("public_key=%q", record.PublicKey)
	}
	if record.Country != "South Korea" || record.CountryCode != "KR" || record.City != "Seoul" {
		t.Fatalf("location=%q/%q/%q", record.Country, record.CountryCode, record.City)
	}
}

func TestNormalizeInvalidAddress(t *testing.T) {
	t.Parallel()

	for _, station := range []string{"", "not-an-ip", "300.1.1.1", "2001:db8::1"} {
		raw := rawEntry()
		raw.Station = station
		if _, err := Normalize(raw); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("station %q: expected ErrInvalidAddress, got %v", station, err)
		}
	}
}

func TestNormalizeMalformedHostname(t *testing.T) {
	t.Parallel()

	for _, hostname := range []string{"", ".nordvpn.com"} {
		raw := rawEntry()
		raw.Hostname = hostname
		if _, err := Normalize(raw); !errors.Is(err, ErrMalformedHostname) {
			t.Fatalf("hostname %q: expected ErrMalformedHostname, got %v", hostname, err)
		}
	}
}

func TestNormalizeEmptyLocationsDefaults(t *testing.T) {
	t.Parallel()

	raw := rawEntry()
	raw.Locations = nil
	record, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.Country != "" || record.CountryCode != "" || record.City != "" {
		t.Fatalf("expected empty location, got %+v", record)
	}

	raw.Locations = []model.RawLocation{{Country: &model.RawCountry{Name: "Japan", Code: "JP"}}}
	record, err = Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.Country != "Japan" || record.City != "" {
		t.Fatalf("unexpected location: %+v", record)
	}
}

func TestNormalizeTechnologyLookupIgnoresOrder(t *testing.T) {
	t.Parallel()

	raw := rawEntry()
	raw.Technologies = []model.RawTechnology{
		{Identifier: "wireguard_udp", Metadata: []model.RawMetadata{
			{Name: "other", Value: json.RawMessage(`42`)},
			{Name: "public_key", Value: json.RawMessage(`"first"`)},
		}},
		{Identifier: "ikev2"},
	}
	raw.Groups = []model.RawGroup{{Identifier: "legacy_p2p"}}
	record, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.PublicKey != "first" || !record.P2P {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestNormalizeMissingProtocol(t *testing.T) {
	t.Parallel()

	raw := rawEntry()
	raw.Technologies = []model.RawTechnology{{Identifier: "openvpn_tcp"}}
	raw.Groups = nil
	raw.Status = "maintenance"
	record, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.SupportsProtocol || record.PublicKey != "" || record.P2P || record.Online {
		t.Fatalf("unexpected record: %+v", record)
	}

	raw.Technologies = []model.RawTechnology{{Identifier: "wireguard_udp"}}
	record, err = Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !record.SupportsProtocol || record.PublicKey != "" {
		t.Fatalf("expected protocol without key, got %+v", record)
	}
}

func TestNormalizeClampsLoad(t *testing.T) {
	t.Parallel()

	raw := rawEntry()
	raw.Load = 140
	record, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if record.Load != 100 {
		t.Fatalf("load=%d", record.Load)
	}
}

func TestNormalizeCatalogDropsBadEntries(t *testing.T) {
	t.Parallel()

	good := rawEntry()
	badAddr := rawEntry()
	badAddr.ID = 2
	badAddr.Station = "bogus"
	badHost := rawEntry()
	badHost.ID = 3
	badHost.Hostname = ""
	second := rawEntry()
	second.ID = 4
	second.Hostname = "jp10.nordvpn.com"

	var dropped []int64
	records := NormalizeCatalog([]model.RawCatalogEntry{good, badAddr, badHost, second}, func(raw model.RawCatalogEntry, err error) {
		if err == nil {
			t.Errorf("drop called without error for %d", raw.ID)
		}
		dropped = append(dropped, raw.ID)
	})
	if len(records) != 2 || records[0].ID != 101 || records[1].ID != 4 {
		t.Fatalf("unexpected records: %+v", records)
	}
	if len(dropped) != 2 || dropped[0] != 2 || dropped[1] != 3 {
		t.Fatalf("dropped=%v", dropped)
	}

	if got := NormalizeCatalog(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty catalog, got %d", len(got))
	}
}
