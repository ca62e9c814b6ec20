package selector

import (
	"sort"
	"strings"

	"github.com/jaxxstorm/relaygen/internal/model"
)

// Select returns the relays matching criteria, least loaded first.
// Relays with equal load keep their catalog order.
func Select(catalog []model.ServerRecord, criteria model.FilterCriteria) []model.ServerRecord {
	query := strings.ToLower(strings.TrimSpace(criteria.Query))

	out := []model.ServerRecord{}
	for _, server := range catalog {
		if Matches(server, criteria.P2P, query) {
			out = append(out, server)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Load < out[j].Load
	})
	return out
}

// Matches expects query to be lower-cased already.
func Matches(server model.ServerRecord, p2p bool, query string) bool {
	if !server.Online || !server.SupportsProtocol || server.P2P != p2p {
		return false
	}
	if query == "" {
		return true
	}
	for _, field := range []string{server.Identifier, server.Country, server.CountryCode, server.City} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Find returns the candidate with the given identifier, ignoring case.
func Find(candidates []model.ServerRecord, identifier string) (model.ServerRecord, bool) {
	for _, server := range candidates {
		if strings.EqualFold(server.Identifier, identifier) {
			return server, true
		}
	}
	return model.ServerRecord{}, false
}

// Limit truncates for display. n <= 0 means no limit.
func Limit(candidates []model.ServerRecord, n int) []model.ServerRecord {
	if n <= 0 || len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
