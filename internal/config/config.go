package config

import (
	"encoding/base64"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jaxxstorm/relaygen/internal/catalog"
	"github.com/jaxxstorm/relaygen/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDNS    = "103.86.96.100"
	DefaultMTU    = "1420"
	DefaultOutDir = "."

	minMTU = 576
	maxMTU = 65535
)

// Config is the on-disk preferences file.
type Config struct {
	PrivateKey string `yaml:"private_key,omitempty"`
	DNS        string `yaml:"dns"`
	MTU        string `yaml:"mtu"`
	CatalogURL string `yaml:"catalog_url"`
	OutDir     string `yaml:"out_dir"`
}

// Load reads a YAML config file. A missing file yields the defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes the config with 0600 permissions since it may hold a private key.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func ApplyDefaults(cfg *Config) {
	if cfg.DNS == "" {
		cfg.DNS = DefaultDNS
	}
	if cfg.MTU == "" {
		cfg.MTU = DefaultMTU
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = catalog.DefaultURL
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
}

// Validate checks the values that end up in a generated profile.
func Validate(cfg Config) error {
	if cfg.PrivateKey == "" {
		return fmt.Errorf("private_key is required")
	}
	key, err := base64.StdEncoding.DecodeString(cfg.PrivateKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("private_key must be a base64 encoded 32 byte key")
	}
	if _, err := netip.ParseAddr(cfg.DNS); err != nil {
		return fmt.Errorf("dns %q is not an IP address", cfg.DNS)
	}
	mtu, err := strconv.Atoi(cfg.MTU)
	if err != nil || mtu < minMTU || mtu > maxMTU {
		return fmt.Errorf("mtu %q must be an integer between %d and %d", cfg.MTU, minMTU, maxMTU)
	}
	return nil
}

func (c Config) Preferences() model.UserPreferences {
	return model.UserPreferences{
		PrivateKey: c.PrivateKey,
		DNS:        c.DNS,
		MTU:        c.MTU,
	}
}
