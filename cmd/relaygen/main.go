package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/relaygen/internal/catalog"
	"github.com/jaxxstorm/relaygen/internal/config"
	"github.com/jaxxstorm/relaygen/internal/dnsclient"
	"github.com/jaxxstorm/relaygen/internal/model"
	"github.com/jaxxstorm/relaygen/internal/output"
	"github.com/jaxxstorm/relaygen/internal/profile"
	"github.com/jaxxstorm/relaygen/internal/qr"
	"github.com/jaxxstorm/relaygen/internal/selector"
	"github.com/jaxxstorm/relaygen/internal/verify"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var Version = "dev"

type CLI struct {
	List     ListCmd     `cmd:"" default:"withargs" help:"List matching relays, least loaded first (default)."`
	Generate GenerateCmd `cmd:"generate" help:"Write a WireGuard profile and its QR code for one relay."`
	Verify   VerifyCmd   `cmd:"verify" help:"Check that a relay hostname resolves to its catalog station address."`
	Init     InitCmd     `cmd:"init" help:"Write a preferences file."`
	Version  VersionCmd  `cmd:"version" help:"Print version."`
}

type CommonFlags struct {
	Config      string `help:"Preferences file (default: relaygen/config.yaml under the user config directory)."`
	CatalogURL  string `name:"catalog-url" help:"Relay directory URL."`
	CatalogFile string `name:"catalog-file" type:"existingfile" help:"Read the relay directory from a saved JSON file instead of fetching it."`
	Verbose     bool   `help:"Enable verbose logging."`
	Debug       bool   `help:"Enable debug logging (includes dropped catalog entries)."`
}

type ListCmd struct {
	Query  string `arg:"" optional:"" help:"Match identifier, country, country code or city."`
	P2P    bool   `name:"p2p" default:"true" negatable:"" help:"Only peer-to-peer relays (--no-p2p for standard relays)."`
	Limit  int    `default:"100" help:"Maximum relays to show (0 for all)."`
	Output string `enum:"pretty,json" default:"pretty" help:"Output format."`

	CommonFlags `embed:""`
}

type GenerateCmd struct {
	Identifier string `arg:"" optional:"" help:"Relay identifier, e.g. jp10. Defaults to the least loaded match."`
	Query      string `short:"q" help:"Match identifier, country, country code or city."`
	P2P        bool   `name:"p2p" default:"true" negatable:"" help:"Only peer-to-peer relays (--no-p2p for standard relays)."`
	Index      int    `default:"0" help:"Rank of the relay to use when no identifier is given."`
	PrivateKey string `name:"private-key" env:"RELAYGEN_PRIVATE_KEY" help:"WireGuard private key (base64)."`
	DNS        string `name:"dns" help:"DNS resolver written into the profile."`
	MTU        string `name:"mtu" help:"Interface MTU written into the profile."`
	OutDir     string `name:"out-dir" help:"Directory for the .conf and .png files."`
	Stdout     bool   `help:"Also print the profile to stdout."`
	NoQR       bool   `name:"no-qr" help:"Skip the QR code."`

	CommonFlags `embed:""`
}

type VerifyCmd struct {
	Identifier string        `arg:"" help:"Relay identifier, e.g. jp10."`
	Resolvers  []string      `name:"resolver" help:"Resolver IPs to query (repeatable). Defaults to the profile DNS, system resolvers, then public resolvers."`
	Transport  string        `enum:"udp,tcp,auto" default:"auto" help:"Transport to use for queries."`
	MaxTime    time.Duration `default:"2s" help:"Time budget per resolver."`
	Output     string        `enum:"pretty,json" default:"pretty" help:"Output format."`

	CommonFlags `embed:""`
}

type InitCmd struct {
	PrivateKey string `name:"private-key" env:"RELAYGEN_PRIVATE_KEY" help:"WireGuard private key (base64)."`
	DNS        string `name:"dns" help:"DNS resolver written into profiles."`
	MTU        string `name:"mtu" help:"Interface MTU written into profiles."`
	OutDir     string `name:"out-dir" help:"Directory for generated files."`
	Force      bool   `help:"Overwrite an existing preferences file."`

	CommonFlags `embed:""`
}

type VersionCmd struct{}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("relaygen"),
		kong.Description("Pick a NordVPN WireGuard relay and generate its profile and QR code."),
	)

	name := ""
	if ctx.Selected() != nil {
		name = ctx.Selected().Name
	}

	switch name {
	case "version":
		fmt.Println(Version)
	case "generate":
		runGenerate(cli.Generate, mustLogger(cli.Generate.CommonFlags))
	case "verify":
		runVerify(cli.Verify, mustLogger(cli.Verify.CommonFlags))
	case "init":
		runInit(cli.Init, mustLogger(cli.Init.CommonFlags))
	default:
		runList(cli.List, mustLogger(cli.List.CommonFlags))
	}
}

func runList(cmd ListCmd, logger *zap.Logger) {
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(cmd.CommonFlags)
	servers := loadCatalog(cmd.CommonFlags, cfg, logger)
	candidates := selector.Select(servers, model.FilterCriteria{Query: cmd.Query, P2P: cmd.P2P})
	logger.Info("relays selected", zap.String("query", cmd.Query), zap.Bool("p2p", cmd.P2P), zap.Int("matches", len(candidates)))

	shown := selector.Limit(candidates, cmd.Limit)
	if cmd.Output == "json" {
		rendered, err := output.RenderJSON(shown)
		if err != nil {
			fatal(err)
		}
		fmt.Println(rendered)
	} else {
		fmt.Println(output.RenderCandidates(shown, len(candidates)))
	}
	if len(candidates) == 0 {
		os.Exit(2)
	}
}

func runGenerate(cmd GenerateCmd, logger *zap.Logger) {
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(cmd.CommonFlags)
	overridePreferences(&cfg, cmd.PrivateKey, cmd.DNS, cmd.MTU, cmd.OutDir)
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}

	servers := loadCatalog(cmd.CommonFlags, cfg, logger)
	candidates := selector.Select(servers, model.FilterCriteria{Query: cmd.Query, P2P: cmd.P2P})
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stderr, "no relays match the given criteria")
		os.Exit(2)
	}

	var server model.ServerRecord
	if cmd.Identifier != "" {
		found, ok := selector.Find(candidates, cmd.Identifier)
		if !ok {
			fmt.Fprintf(os.Stderr, "relay %q is not among the %d matching relays\n", cmd.Identifier, len(candidates))
			os.Exit(2)
		}
		server = found
	} else {
		if cmd.Index < 0 || cmd.Index >= len(candidates) {
			fmt.Fprintf(os.Stderr, "index %d out of range, %d relays match\n", cmd.Index, len(candidates))
			os.Exit(2)
		}
		server = candidates[cmd.Index]
	}
	logger.Info("relay chosen", zap.String("identifier", server.Identifier), zap.Int("load", server.Load))

	p, err := profile.Build(cfg.Preferences(), server)
	switch {
	case err == nil:
	case errors.Is(err, qr.ErrPayloadTooLarge):
		logger.Warn("profile too large for a QR code", zap.String("identifier", server.Identifier), zap.Int("bytes", len(p.Document)))
		fmt.Fprintln(os.Stderr, "warning: profile is too large for a QR code; writing the .conf file only")
	default:
		fatal(err)
	}

	confPath := filepath.Join(cfg.OutDir, p.FileName)
	if err := writeFile(confPath, []byte(p.Document+"\n")); err != nil {
		fatal(err)
	}
	fmt.Println(confPath)

	if p.QR != nil && !cmd.NoQR {
		qrPath := filepath.Join(cfg.OutDir, p.QRFileName)
		if err := writeFile(qrPath, p.QR); err != nil {
			fatal(err)
		}
		logger.Info("qr code written", zap.String("path", qrPath), zap.Int("version", p.QRVersion))
		fmt.Println(qrPath)
	}

	if cmd.Stdout {
		fmt.Println()
		fmt.Println(p.Document)
	}
}

func runVerify(cmd VerifyCmd, logger *zap.Logger) {
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(cmd.CommonFlags)
	servers := loadCatalog(cmd.CommonFlags, cfg, logger)
	server, ok := selector.Find(servers, cmd.Identifier)
	if !ok {
		fmt.Fprintf(os.Stderr, "relay %q not found in catalog\n", cmd.Identifier)
		os.Exit(2)
	}

	resolvers := cmd.Resolvers
	if len(resolvers) == 0 {
		resolvers = verify.ResolverChain(cfg.DNS)
	}

	client := dnsclient.New(dnsclient.Options{
		Mode:    dnsclient.Mode(cmd.Transport),
		Timeout: cmd.MaxTime,
		Retries: 1,
		Logger:  logger,
	})

	result, err := verify.Station(context.Background(), client, resolvers, server, verify.Config{Timeout: cmd.MaxTime, Logger: logger})
	if err != nil {
		fatal(err)
	}

	var rendered string
	if cmd.Output == "json" {
		rendered, err = output.RenderJSON(result)
	} else {
		rendered = output.RenderVerify(result)
	}
	if err != nil {
		fatal(err)
	}

	fmt.Println(rendered)
	if result.Diagnosis.Classification != "MATCH" {
		os.Exit(2)
	}
}

func runInit(cmd InitCmd, logger *zap.Logger) {
	defer func() { _ = logger.Sync() }()

	path := configPath(cmd.Config)
	if _, err := os.Stat(path); err == nil && !cmd.Force {
		fatal(fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	cfg := config.Config{CatalogURL: cmd.CatalogURL}
	overridePreferences(&cfg, cmd.PrivateKey, cmd.DNS, cmd.MTU, cmd.OutDir)
	config.ApplyDefaults(&cfg)
	if cfg.PrivateKey != "" {
		if err := config.Validate(cfg); err != nil {
			fatal(err)
		}
	}
	if err := config.Save(path, cfg); err != nil {
		fatal(err)
	}
	logger.Info("preferences written", zap.String("path", path))
	fmt.Println(path)
}

func loadConfig(flags CommonFlags) config.Config {
	cfg, err := config.Load(configPath(flags.Config))
	if err != nil {
		fatal(err)
	}
	if flags.CatalogURL != "" {
		cfg.CatalogURL = flags.CatalogURL
	}
	return cfg
}

func loadCatalog(flags CommonFlags, cfg config.Config, logger *zap.Logger) []model.ServerRecord {
	var (
		raw []model.RawCatalogEntry
		err error
	)
	if flags.CatalogFile != "" {
		raw, err = catalog.LoadFile(flags.CatalogFile)
	} else {
		fetcher := catalog.NewFetcher(catalog.Options{URL: cfg.CatalogURL, Logger: logger})
		raw, err = fetcher.Fetch(context.Background())
	}
	if err != nil {
		fatal(err)
	}

	dropped := 0
	servers := catalog.NormalizeCatalog(raw, func(entry model.RawCatalogEntry, err error) {
		dropped++
		logger.Debug("catalog entry dropped",
			zap.Int64("id", entry.ID),
			zap.String("hostname", entry.Hostname),
			zap.Error(err),
		)
	})
	logger.Info("catalog normalized", zap.Int("entries", len(raw)), zap.Int("servers", len(servers)), zap.Int("dropped", dropped))
	return servers
}

func overridePreferences(cfg *config.Config, privateKey, dns, mtu, outDir string) {
	if privateKey != "" {
		cfg.PrivateKey = privateKey
	}
	if dns != "" {
		cfg.DNS = dns
	}
	if mtu != "" {
		cfg.MTU = mtu
	}
	if outDir != "" {
		cfg.OutDir = outDir
	}
}

func configPath(path string) string {
	if path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "relaygen.yaml"
	}
	return filepath.Join(dir, "relaygen", "config.yaml")
}

// writeFile uses 0600 since profiles embed the private key.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mustLogger(flags CommonFlags) *zap.Logger {
	logger, err := newLogger(flags.Verbose, flags.Debug)
	if err != nil {
		fatal(err)
	}
	return logger
}

func newLogger(verbose bool, debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
