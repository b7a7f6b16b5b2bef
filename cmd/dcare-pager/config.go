package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poltys-apps/dcare-pager-gw/pkg/discovery"
	"github.com/poltys-apps/dcare-pager-gw/pkg/session"
)

// DefaultKickInterval is how often the connection is re-registered.
const DefaultKickInterval = time.Minute

// Config holds the command configuration. Values come from an optional
// YAML file and are overridden by explicitly set flags.
type Config struct {
	ConfigFile   string `yaml:"-"`
	SettingsPath string `yaml:"settings"`

	Destination  string `yaml:"destination"`
	Port         int    `yaml:"port"`
	APIPort      int    `yaml:"api_port"`
	FriendlyName string `yaml:"friendly_name"`

	LogLevel    string `yaml:"log_level"`
	CaptureFile string `yaml:"capture"`
	MetricsAddr string `yaml:"metrics"`

	Discover  bool   `yaml:"discover"`
	Interface string `yaml:"interface"`
	Site      string `yaml:"site"`

	KickInterval time.Duration `yaml:"kick_interval"`
	Interactive  bool          `yaml:"interactive"`
}

func defaultConfig() Config {
	settingsPath := "settings.json"
	if dir, err := os.UserConfigDir(); err == nil {
		settingsPath = filepath.Join(dir, "dcare-pager", "settings.json")
	}
	return Config{
		SettingsPath: settingsPath,
		Port:         session.DefaultPort,
		LogLevel:     "info",
		KickInterval: DefaultKickInterval,
	}
}

// newFlagSet binds the flags to cfg, using its current values as defaults.
func newFlagSet(cfg *Config, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("dcare-pager", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")
	fs.StringVar(&cfg.SettingsPath, "settings", cfg.SettingsPath, "Settings file")
	fs.StringVar(&cfg.Destination, "destination", cfg.Destination, "Server address (overrides the stored setting)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Server UDP port")
	fs.IntVar(&cfg.APIPort, "api-port", cfg.APIPort, "Server HTTP port (0 = scheme default)")
	fs.StringVar(&cfg.FriendlyName, "name", cfg.FriendlyName, "Friendly name reported to the server")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.CaptureFile, "capture", cfg.CaptureFile, "Write protocol capture events to this file")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.BoolVar(&cfg.Discover, "discover", cfg.Discover, "Browse mDNS for a server when no destination is set")
	fs.StringVar(&cfg.Interface, "iface", cfg.Interface, "Network interface for discovery")
	fs.StringVar(&cfg.Site, "site", cfg.Site, "Only accept discovered servers for this site")
	fs.DurationVar(&cfg.KickInterval, "kick", cfg.KickInterval, "Registration kick interval")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Start the interactive console")
	return fs
}

// parseConfig parses args, loads the -config file if given and parses
// args again so flags win over the file.
func parseConfig(args []string, output io.Writer) (Config, error) {
	cfg := defaultConfig()
	if err := newFlagSet(&cfg, output).Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ConfigFile == "" {
		return cfg, validateConfig(cfg)
	}

	path := cfg.ConfigFile
	if err := loadConfigFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := newFlagSet(&cfg, io.Discard).Parse(args); err != nil {
		return Config{}, err
	}
	cfg.ConfigFile = path
	return cfg, validateConfig(cfg)
}

// loadConfigFile decodes the YAML file at path over cfg. Keys missing
// from the file keep their current values.
func loadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", cfg.Port)
	}
	if cfg.APIPort < 0 || cfg.APIPort > 65535 {
		return fmt.Errorf("api port must be 0-65535, got %d", cfg.APIPort)
	}
	if cfg.KickInterval <= 0 {
		return fmt.Errorf("kick interval must be positive, got %s", cfg.KickInterval)
	}
	if strings.TrimSpace(cfg.SettingsPath) == "" {
		return errors.New("settings path required")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.LogLevel)
	}
	return nil
}

// browserConfig returns the discovery configuration for cfg.
func (c Config) browserConfig() discovery.BrowserConfig {
	bc := discovery.DefaultBrowserConfig()
	bc.Interface = c.Interface
	bc.Site = c.Site
	return bc
}
