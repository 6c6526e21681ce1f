package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/history"
	"github.com/cleared-dev/ledger/internal/layer"
)

// FileName is the configuration file looked up in the ledger directory.
const FileName = "ledger.yaml"

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	Ledger     LedgerConfig          `yaml:"ledger"`
	BaseLayers map[string]int        `yaml:"base_layers"`
	Bridges    accounts.BridgeConfig `yaml:"bridges"`
	Log        LogConfig             `yaml:"log"`
	Audit      AuditConfig           `yaml:"audit"`
	History    HistoryConfig         `yaml:"history"`
}

// LedgerConfig identifies the chart the ledger operates on.
type LedgerConfig struct {
	Chart          string `yaml:"chart"`
	Description    string `yaml:"description"`
	DataDir        string `yaml:"data_dir"` // relative to the config file
	DefaultJournal string `yaml:"default_journal"`
	StrictCodes    bool   `yaml:"strict_codes"`
	CodePadding    int    `yaml:"code_padding"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// AuditConfig controls the audit trail of write commands.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Actor   string `yaml:"actor"`
}

// HistoryConfig controls git versioning of the ledger directory.
type HistoryConfig struct {
	AutoCommit     bool `yaml:"auto_commit"`
	history.Author `yaml:",inline"`
}

// Load reads a ledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(chart, description string) *Config {
	return &Config{
		Ledger: LedgerConfig{
			Chart:          chart,
			Description:    description,
			DataDir:        "data",
			DefaultJournal: accounts.DefaultJournal,
			StrictCodes:    true,
			CodePadding:    3,
		},
		BaseLayers: map[string]int{"USD": 1000},
		Bridges:    accounts.DefaultBridgeConfig(chart),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Audit: AuditConfig{
			Enabled: true,
			Actor:   "ledger",
		},
		History: HistoryConfig{
			AutoCommit: false,
			Author:     history.Author{Name: "Ledger", Email: "ledger@localhost"},
		},
	}
}

// Validate checks the configuration for values the ledger cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Ledger.Chart == "" {
		errs = append(errs, errors.New("ledger.chart is required"))
	}
	if c.Ledger.DefaultJournal == "" {
		errs = append(errs, errors.New("ledger.default_journal is required"))
	}
	if c.Ledger.CodePadding < 1 || c.Ledger.CodePadding > 9 {
		errs = append(errs, fmt.Errorf("ledger.code_padding must be between 1 and 9, got %d", c.Ledger.CodePadding))
	}
	if len(c.BaseLayers) == 0 {
		errs = append(errs, errors.New("base_layers needs at least one currency"))
	} else if _, err := layer.NewMap(c.BaseLayers); err != nil {
		errs = append(errs, fmt.Errorf("base_layers: %w", err))
	}
	if c.Bridges.AssetsParent == "" || c.Bridges.LiabilitiesParent == "" {
		errs = append(errs, errors.New("bridges.assets_parent and bridges.liabilities_parent are required"))
	}
	if c.History.AutoCommit && (c.History.Name == "" || c.History.Email == "") {
		errs = append(errs, errors.New("history.author_name and history.author_email are required with auto_commit"))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// LayerMap builds the currency layer map from BaseLayers.
func (c *Config) LayerMap() (*layer.Map, error) {
	return layer.NewMap(c.BaseLayers)
}
