package model

import (
	"encoding/json"
	"net/netip"
	"time"
)

// RawCatalogEntry is one element of the relay directory response as served upstream.
type RawCatalogEntry struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Station      string          `json:"station"`
	Hostname     string          `json:"hostname"`
	Load         int             `json:"load"`
	Status       string          `json:"status"`
	Locations    []RawLocation   `json:"locations"`
	Technologies []RawTechnology `json:"technologies"`
	Groups       []RawGroup      `json:"groups"`
}

type RawLocation struct {
	Country *RawCountry `json:"country,omitempty"`
}

type RawCountry struct {
	Name string   `json:"name"`
	Code string   `json:"code"`
	City *RawCity `json:"city,omitempty"`
}

type RawCity struct {
	Name string `json:"name"`
}

type RawTechnology struct {
	Identifier string        `json:"identifier"`
	Metadata   []RawMetadata `json:"metadata"`
}

// RawMetadata values are usually strings but the feed does not promise it.
type RawMetadata struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type RawGroup struct {
	Identifier string `json:"identifier"`
}

// ServerRecord is the canonical relay record. All fields are resolved when it is built.
type ServerRecord struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Hostname         string     `json:"hostname"`
	Station          netip.Addr `json:"station"`
	Load             int        `json:"load"`
	Online           bool       `json:"online"`
	Country          string     `json:"country"`
	CountryCode      string     `json:"country_code"`
	City             string     `json:"city"`
	PublicKey        string     `json:"public_key"`
	SupportsProtocol bool       `json:"supports_protocol"`
	P2P              bool       `json:"p2p"`
	Identifier       string     `json:"identifier"`
}

type FilterCriteria struct {
	Query string `json:"query"`
	P2P   bool   `json:"p2p"`
}

// UserPreferences are embedded verbatim into the generated profile.
type UserPreferences struct {
	PrivateKey string
	DNS        string
	MTU        string
}

type VerifyStep struct {
	Index     int       `json:"index"`
	Resolver  string    `json:"resolver"`
	QueryName string    `json:"query_name"`
	Transport string    `json:"transport"`
	Rcode     string    `json:"rcode"`
	Addresses []string  `json:"addresses,omitempty"`
	Match     bool      `json:"match"`
	RTT       string    `json:"rtt"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Diagnosis struct {
	Classification string   `json:"classification"`
	Summary        string   `json:"summary"`
	EvidenceSteps  []int    `json:"evidence_steps"`
	Hints          []string `json:"hints,omitempty"`
}

type VerifyResult struct {
	Identifier string       `json:"identifier"`
	Hostname   string       `json:"hostname"`
	Station    string       `json:"station"`
	Steps      []VerifyStep `json:"steps"`
	Diagnosis  Diagnosis    `json:"diagnosis"`
}
