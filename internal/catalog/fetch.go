package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jaxxstorm/relaygen/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultURL       = "https://api.nordvpn.com/v1/servers?limit=9999&filters[servers_technologies][identifier]=wireguard_udp"
	DefaultUserAgent = "github.com/jaxxstorm/relaygen"
	// The full directory is a few MB; anything far beyond that is not a catalog.
	maxBodyBytes = 64 << 20
)

type Options struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client
	Logger    *zap.Logger
}

// Fetcher downloads the raw relay directory. It makes a single attempt per call.
type Fetcher struct {
	opts Options
}

func NewFetcher(opts Options) *Fetcher {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Fetcher{opts: opts}
}

func (f *Fetcher) Fetch(ctx context.Context) ([]model.RawCatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return nil, fmt.Errorf("fetch catalog: %s: %s", res.Status, msg)
		}
		return nil, fmt.Errorf("fetch catalog: %s", res.Status)
	}

	entries, err := Decode(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	f.opts.Logger.Info("catalog fetched",
		zap.String("url", f.opts.URL),
		zap.Int("entries", len(entries)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return entries, nil
}

// LoadFile reads a directory response previously saved to disk.
func LoadFile(path string) ([]model.RawCatalogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

func Decode(r io.Reader) ([]model.RawCatalogEntry, error) {
	var entries []model.RawCatalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}
