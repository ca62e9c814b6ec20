package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

type Mode string

const (
	ModeUDP  Mode = "udp"
	ModeTCP  Mode = "tcp"
	ModeAuto Mode = "auto"
)

type Options struct {
	Mode      Mode
	Timeout   time.Duration
	Retries   int
	EDNS0Size uint16
	Logger    *zap.Logger
}

type Client struct {
	opts Options
	udp  Transport
	tcp  Transport
}

// Answer is the outcome of a single address lookup.
type Answer struct {
	Addresses []netip.Addr
	Rcode     string
	RTT       time.Duration
	Transport string
}

func New(opts Options) *Client {
	return NewWithTransports(opts, &netTransport{network: "udp", timeout: opts.Timeout}, &netTransport{network: "tcp", timeout: opts.Timeout})
}

func NewWithTransports(opts Options, udp Transport, tcp Transport) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Retries == 0 {
		opts.Retries = 1
	}
	if opts.EDNS0Size == 0 {
		opts.EDNS0Size = 1232
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{opts: opts, udp: udp, tcp: tcp}
}

// LookupA asks server for the A records of host with recursion desired.
func (c *Client) LookupA(ctx context.Context, server, host string) (Answer, error) {
	msg := &dns.Msg{}
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true
	msg.SetEdns0(c.opts.EDNS0Size, false)

	resp, rtt, transport, err := c.Exchange(ctx, server, msg)
	answer := Answer{RTT: rtt, Transport: transport}
	if err != nil {
		return answer, err
	}
	if resp == nil {
		return answer, errors.New("empty response")
	}
	answer.Rcode = dns.RcodeToString[resp.Rcode]
	for _, rr := range resp.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(a.A.To4()); ok {
			answer.Addresses = append(answer.Addresses, addr)
		}
	}
	return answer, nil
}

func (c *Client) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, string, error) {
	server = NormalizeServer(server)
	switch c.opts.Mode {
	case ModeTCP:
		resp, rtt, err := c.exchangeWithRetries(ctx, c.tcp, server, msg, "tcp")
		return resp, rtt, "tcp", err
	case ModeUDP:
		resp, rtt, err := c.exchangeWithRetries(ctx, c.udp, server, msg, "udp")
		return resp, rtt, "udp", err
	case ModeAuto:
		resp, rtt, err := c.exchangeWithRetries(ctx, c.udp, server, msg, "udp")
		if err == nil && resp != nil && resp.Truncated {
			c.opts.Logger.Debug("udp truncated, retrying with tcp", zap.String("server", server))
			resp, rtt, err = c.exchangeWithRetries(ctx, c.tcp, server, msg, "tcp")
			return resp, rtt, "tcp", err
		}
		return resp, rtt, "udp", err
	default:
		return nil, 0, "", fmt.Errorf("unsupported transport mode: %s", c.opts.Mode)
	}
}

func (c *Client) exchangeWithRetries(ctx context.Context, transport Transport, server string, msg *dns.Msg, mode string) (*dns.Msg, time.Duration, error) {
	var lastErr error
	for i := 0; i < c.opts.Retries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		resp, rtt, err := transport.Exchange(ctx, server, msg.Copy())
		if err == nil {
			if resp != nil {
				c.opts.Logger.Debug("dns exchange",
					zap.String("transport", mode),
					zap.String("server", server),
					zap.String("rcode", dns.RcodeToString[resp.Rcode]),
					zap.Int("answers", len(resp.Answer)),
					zap.Duration("rtt", rtt),
				)
			}
			return resp, rtt, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("dns exchange failed")
	}
	return nil, 0, lastErr
}

func NormalizeServer(server string) string {
	if server == "" {
		return server
	}
	if strings.HasPrefix(server, "[") {
		if strings.Contains(server, "]:") {
			return server
		}
		return server + ":53"
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	if strings.Contains(server, ":") {
		return "[" + server + "]:53"
	}
	return server + ":53"
}
