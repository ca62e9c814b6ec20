package dnsclient

import (
	"context"
	"errors"
	"time"

	"github.com/miekg/dns"
)

// MockTransport answers queries from Responder without touching the network.
type MockTransport struct {
	Responder func(server string, msg *dns.Msg) (*dns.Msg, time.Duration, error)
}

func (m *MockTransport) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	if m.Responder == nil {
		return nil, 0, errors.New("no responder configured")
	}
	return m.Responder(server, msg)
}
