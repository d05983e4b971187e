package config

import (
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pointsd.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointsd.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	if cfg.DataDir != "./points-data" {
		t.Fatalf("DataDir: got %q", cfg.DataDir)
	}
	if cfg.RedeemEnabled {
		t.Fatalf("redemption enabled by default")
	}
	if cfg.HoldingRate().Sign() <= 0 {
		t.Fatalf("default holding rate not positive")
	}
	// The written file must load back to the same configuration.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *reloaded != *cfg {
		t.Fatalf("reload mismatch: %+v vs %+v", reloaded, cfg)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `Environment = "test"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KeeperIntervalSeconds != 60 || cfg.BlockIntervalSeconds != 12 {
		t.Fatalf("timing defaults: %+v", cfg)
	}
	if cfg.MinLockDays != 7 || cfg.MaxLockDays != 365 {
		t.Fatalf("lock defaults: %+v", cfg)
	}
	if cfg.MaxBatchSize != 100 || cfg.HistoryCapacity != 32 {
		t.Fatalf("cap defaults: %+v", cfg)
	}
	if cfg.EarlyExitPenaltyBps != 5_000 || cfg.RootDelayHours != 24 {
		t.Fatalf("penalty/delay defaults: %+v", cfg)
	}
}

func TestLoadRejectsBadRate(t *testing.T) {
	for name, body := range map[string]string{
		"malformed": `HoldingRatePerSecond = "not-a-number"`,
		"negative":  `HoldingRatePerSecond = "-5"`,
		"oversized": `HoldingRatePerSecond = "` + strings.Repeat("9", 60) + `"`,
	} {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, body)
			if _, err := Load(path); err == nil {
				t.Fatalf("bad rate accepted")
			}
		})
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	cfg := base()
	cfg.EarlyExitPenaltyBps = 10_001
	if err := cfg.Validate(); err == nil {
		t.Fatalf("penalty above denominator accepted")
	}

	cfg = base()
	cfg.MinLockDays = 400
	if err := cfg.Validate(); err == nil {
		t.Fatalf("inverted lock range accepted")
	}

	cfg = base()
	cfg.ExchangeRate = "1.5"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("fractional exchange rate accepted")
	}

	// days x extra-bps must not wrap uint64 inside the boost schedule.
	cfg = base()
	cfg.MaxExtraBoostBps = math.MaxUint64 / 100
	if err := cfg.Validate(); err == nil {
		t.Fatalf("overflowing boost schedule accepted")
	}
}

func TestAmountAccessors(t *testing.T) {
	cfg := &Config{
		HoldingRatePerSecond: " 123 ",
		ExchangeRate:         "1000000000000000000",
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.HoldingRate().Cmp(big.NewInt(123)) != 0 {
		t.Fatalf("holding rate: got %s", cfg.HoldingRate())
	}
	// Empty amount fields parse as zero.
	if cfg.LiquidityRate().Sign() != 0 || cfg.MaxRedeemPerTxAmount().Sign() != 0 {
		t.Fatalf("empty amounts not zero")
	}
	want, _ := new(big.Int).SetString("1000000000000000000", 10)
	if cfg.ExchangeRateAmount().Cmp(want) != 0 {
		t.Fatalf("exchange rate: got %s", cfg.ExchangeRateAmount())
	}
}
