package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/jaxxstorm/relaygen/internal/analyze"
	"github.com/jaxxstorm/relaygen/internal/dnsclient"
	"github.com/jaxxstorm/relaygen/internal/model"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

type Config struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// Station resolves the relay hostname through each resolver in order and
// checks the answers against the catalog station address.
func Station(ctx context.Context, client *dnsclient.Client, resolvers []string, server model.ServerRecord, cfg Config) (model.VerifyResult, error) {
	if len(resolvers) == 0 {
		return model.VerifyResult{}, fmt.Errorf("no resolvers configured")
	}
	if server.Hostname == "" {
		return model.VerifyResult{}, fmt.Errorf("relay %d has no hostname", server.ID)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	result := model.VerifyResult{
		Identifier: server.Identifier,
		Hostname:   server.Hostname,
		Station:    server.Station.String(),
	}
	for i, resolver := range resolvers {
		resolver = dnsclient.NormalizeServer(resolver)

		ctxReq, cancel := context.WithTimeout(ctx, cfg.Timeout)
		answer, err := client.LookupA(ctxReq, resolver, server.Hostname)
		cancel()

		step := model.VerifyStep{
			Index:     i,
			Resolver:  resolver,
			QueryName: dns.Fqdn(server.Hostname),
			Transport: answer.Transport,
			Rcode:     answer.Rcode,
			RTT:       answer.RTT.String(),
			Timestamp: time.Now(),
		}
		if err != nil {
			step.Error = err.Error()
			cfg.Logger.Info("resolver failed", zap.String("resolver", resolver), zap.Error(err))
			result.Steps = append(result.Steps, step)
			continue
		}
		for _, addr := range answer.Addresses {
			step.Addresses = append(step.Addresses, addr.String())
			if addr == server.Station {
				step.Match = true
			}
		}
		result.Steps = append(result.Steps, step)
	}

	result.Diagnosis = analyze.Classify(result.Steps)
	return result, nil
}
