package config

import (
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"pointshub/native/points/fixedmath"
)

// Config drives the pointsd daemon. Amount-valued fields are decimal
// strings so TOML stays precise beyond int64.
type Config struct {
	DataDir        string `toml:"DataDir"`
	Environment    string `toml:"Environment"`
	MetricsAddress string `toml:"MetricsAddress"`

	KeeperIntervalSeconds uint64 `toml:"KeeperIntervalSeconds"`
	BlockIntervalSeconds  uint64 `toml:"BlockIntervalSeconds"`
	MinHoldingBlocks      uint64 `toml:"MinHoldingBlocks"`
	MaxBatchSize          int    `toml:"MaxBatchSize"`

	HoldingRatePerSecond   string `toml:"HoldingRatePerSecond"`
	LiquidityRatePerSecond string `toml:"LiquidityRatePerSecond"`
	StakingRatePerSecond   string `toml:"StakingRatePerSecond"`

	MinLockDays          uint64 `toml:"MinLockDays"`
	MaxLockDays          uint64 `toml:"MaxLockDays"`
	MaxExtraBoostBps     uint64 `toml:"MaxExtraBoostBps"`
	MaxPositionsPerOwner int    `toml:"MaxPositionsPerOwner"`
	EarlyExitPenaltyBps  uint64 `toml:"EarlyExitPenaltyBps"`

	RootDelayHours  uint64 `toml:"RootDelayHours"`
	HistoryCapacity int    `toml:"HistoryCapacity"`

	ExchangeRate   string `toml:"ExchangeRate"`
	RedeemEnabled  bool   `toml:"RedeemEnabled"`
	MaxRedeemPerTx string `toml:"MaxRedeemPerTx"`
}

// Load reads the configuration at path, writing a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./points-data"
	}
	if c.KeeperIntervalSeconds == 0 {
		c.KeeperIntervalSeconds = 60
	}
	if c.BlockIntervalSeconds == 0 {
		c.BlockIntervalSeconds = 12
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 100
	}
	if c.MinLockDays == 0 {
		c.MinLockDays = 7
	}
	if c.MaxLockDays == 0 {
		c.MaxLockDays = 365
	}
	if c.MaxExtraBoostBps == 0 {
		c.MaxExtraBoostBps = fixedmath.BpsDenom
	}
	if c.MaxPositionsPerOwner <= 0 {
		c.MaxPositionsPerOwner = 64
	}
	if c.EarlyExitPenaltyBps == 0 {
		c.EarlyExitPenaltyBps = 5_000
	}
	if c.RootDelayHours == 0 {
		c.RootDelayHours = 24
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = 32
	}
}

// Validate rejects configurations the engines would refuse at wiring
// time, so a bad rate fails at startup rather than mid-accrual.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"HoldingRatePerSecond":   c.HoldingRatePerSecond,
		"LiquidityRatePerSecond": c.LiquidityRatePerSecond,
		"StakingRatePerSecond":   c.StakingRatePerSecond,
	} {
		rate, err := c.amount(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !fixedmath.ValidRate(rate) {
			return fmt.Errorf("%s: rate outside safe bounds", name)
		}
	}
	if c.EarlyExitPenaltyBps > fixedmath.BpsDenom {
		return fmt.Errorf("EarlyExitPenaltyBps must not exceed %d", fixedmath.BpsDenom)
	}
	if c.MinLockDays > c.MaxLockDays {
		return fmt.Errorf("MinLockDays must not exceed MaxLockDays")
	}
	// The schedule multiplies lock days by the extra bps in uint64 space;
	// bound the product so it can never wrap.
	if c.MaxLockDays > 0 && c.MaxExtraBoostBps > math.MaxUint64/c.MaxLockDays {
		return fmt.Errorf("MaxExtraBoostBps too large for MaxLockDays")
	}
	if _, err := c.amount(c.ExchangeRate); err != nil {
		return fmt.Errorf("ExchangeRate: %w", err)
	}
	if _, err := c.amount(c.MaxRedeemPerTx); err != nil {
		return fmt.Errorf("MaxRedeemPerTx: %w", err)
	}
	return nil
}

func (c *Config) amount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}
	return value, nil
}

// HoldingRate returns the parsed holding-module rate.
func (c *Config) HoldingRate() *big.Int { return c.mustAmount(c.HoldingRatePerSecond) }

// LiquidityRate returns the parsed liquidity-module rate.
func (c *Config) LiquidityRate() *big.Int { return c.mustAmount(c.LiquidityRatePerSecond) }

// StakingRate returns the parsed staking-module rate.
func (c *Config) StakingRate() *big.Int { return c.mustAmount(c.StakingRatePerSecond) }

// ExchangeRateAmount returns the parsed points-to-token rate.
func (c *Config) ExchangeRateAmount() *big.Int { return c.mustAmount(c.ExchangeRate) }

// MaxRedeemPerTxAmount returns the parsed per-transaction redemption cap.
func (c *Config) MaxRedeemPerTxAmount() *big.Int { return c.mustAmount(c.MaxRedeemPerTx) }

// mustAmount is only called after Validate has accepted the raw value.
func (c *Config) mustAmount(raw string) *big.Int {
	value, err := c.amount(raw)
	if err != nil {
		return big.NewInt(0)
	}
	return value
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:                "./points-data",
		Environment:            "local",
		MetricsAddress:         "",
		KeeperIntervalSeconds:  60,
		BlockIntervalSeconds:   12,
		MinHoldingBlocks:       10,
		MaxBatchSize:           100,
		HoldingRatePerSecond:   "1000000000000",
		LiquidityRatePerSecond: "2000000000000",
		StakingRatePerSecond:   "1500000000000",
		MinLockDays:            7,
		MaxLockDays:            365,
		MaxExtraBoostBps:       fixedmath.BpsDenom,
		MaxPositionsPerOwner:   64,
		EarlyExitPenaltyBps:    5_000,
		RootDelayHours:         24,
		HistoryCapacity:        32,
		ExchangeRate:           "1000000000000000000",
		RedeemEnabled:          false,
		MaxRedeemPerTx:         "",
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
