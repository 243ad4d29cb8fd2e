package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Grailmarket/gusd/internal/domain"
)

// Config holds one node deployment's settings. Sensitive values can be
// overridden by environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Chain struct {
		ID           uint32 `yaml:"id"`
		GovernanceID uint32 `yaml:"governance_id"`
		PeerPolicy   string `yaml:"peer_policy"` // "owner-set" or "governed"
	} `yaml:"chain"`

	Accounts struct {
		Owner  string `yaml:"owner"`
		Minter string `yaml:"minter"`
		Vault  string `yaml:"vault"`
	} `yaml:"accounts"`

	Currency struct {
		ID       string `yaml:"id"`
		Decimals uint8  `yaml:"decimals"`
		Native   bool   `yaml:"native"`
	} `yaml:"currency"`

	Fees struct {
		MintBps int64 `yaml:"mint_bps"`
	} `yaml:"fees"`

	Transport struct {
		RelayURL   string `yaml:"relay_url"`
		Secret     string `yaml:"secret"`
		BaseFee    int64  `yaml:"base_fee"`
		PerByteFee int64  `yaml:"per_byte_fee"`
	} `yaml:"transport"`

	Peers []struct {
		Chain uint32 `yaml:"chain"`
		Addr  string `yaml:"addr"`
	} `yaml:"peers"`

	Storage struct {
		SnapshotKeep int `yaml:"snapshot_keep"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses a node config file. Environment variables
// override file values for secrets.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Chain.ID == 0 {
		return fmt.Errorf("chain id is required")
	}
	if c.Chain.GovernanceID == 0 {
		return fmt.Errorf("governance chain id is required")
	}
	if _, err := c.PeerPolicy(); err != nil {
		return err
	}

	for name, raw := range map[string]string{
		"owner":  c.Accounts.Owner,
		"minter": c.Accounts.Minter,
		"vault":  c.Accounts.Vault,
	} {
		if raw == "" {
			return fmt.Errorf("%s address is required", name)
		}
		if _, err := domain.ParseAddress(raw); err != nil {
			return fmt.Errorf("invalid %s address: %w", name, err)
		}
	}

	if c.Currency.ID == "" {
		return fmt.Errorf("currency id is required")
	}
	if c.Fees.MintBps < 0 || c.Fees.MintBps > domain.MaxFeeBps {
		return fmt.Errorf("mint fee %d bps outside [0, %d]", c.Fees.MintBps, domain.MaxFeeBps)
	}

	if c.Transport.RelayURL != "" {
		if !hasPrefix(c.Transport.RelayURL, "ws://") && !hasPrefix(c.Transport.RelayURL, "wss://") {
			return fmt.Errorf("invalid relay URL: %s", c.Transport.RelayURL)
		}
		if c.Transport.Secret == "" {
			return fmt.Errorf("relay secret is required when a relay URL is set (GUSD_RELAY_SECRET)")
		}
	}
	if c.Transport.BaseFee < 0 || c.Transport.PerByteFee < 0 {
		return fmt.Errorf("transport fees must be non-negative")
	}

	for _, p := range c.Peers {
		if p.Chain == 0 {
			return fmt.Errorf("peer chain id is required")
		}
		if _, err := domain.ParseAddress(p.Addr); err != nil {
			return fmt.Errorf("invalid peer address for chain %d: %w", p.Chain, err)
		}
	}
	return nil
}

// PeerPolicy maps the configured policy string to the domain type.
func (c *Config) PeerPolicy() (domain.PeerPolicy, error) {
	switch c.Chain.PeerPolicy {
	case "", "owner-set":
		return domain.PolicyOwnerSet, nil
	case "governed":
		return domain.PolicyGoverned, nil
	default:
		return 0, fmt.Errorf("unknown peer policy %q", c.Chain.PeerPolicy)
	}
}

// OwnerAddress returns the parsed owner address. Call after Validate.
func (c *Config) OwnerAddress() domain.Address {
	a, _ := domain.ParseAddress(c.Accounts.Owner)
	return a
}

// MinterAddress returns the parsed minter address. Call after Validate.
func (c *Config) MinterAddress() domain.Address {
	a, _ := domain.ParseAddress(c.Accounts.Minter)
	return a
}

// VaultAddress returns the parsed vault address. Call after Validate.
func (c *Config) VaultAddress() domain.Address {
	a, _ := domain.ParseAddress(c.Accounts.Vault)
	return a
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variables over file values.
// Environment takes precedence so secrets never need to live on disk.
func overrideWithEnv(cfg *Config) {
	if cfg.Transport.Secret != "" {
		fmt.Println("WARNING: relay secret found in config file.")
		fmt.Println("  Recommendation: set GUSD_RELAY_SECRET instead.")
	}
	if secret := os.Getenv("GUSD_RELAY_SECRET"); secret != "" {
		cfg.Transport.Secret = secret
	}
	if url := os.Getenv("GUSD_RELAY_URL"); url != "" {
		cfg.Transport.RelayURL = url
	}
}
