package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"propstake/native/lockup"
)

// RateStep maps a total-stake threshold to the maximum reward minted per
// block once that much stake is locked. Amounts are decimal strings in the
// smallest reward denomination.
type RateStep struct {
	TotalStaked    string `toml:"TotalStaked"`
	RewardPerBlock string `toml:"RewardPerBlock"`
}

type Config struct {
	DataDir         string     `toml:"DataDir"`
	LogPath         string     `toml:"LogPath"`
	Environment     string     `toml:"Environment"`
	HoldersShareBps uint32     `toml:"HoldersShareBps"`
	RewardSteps     []RateStep `toml:"RewardSteps"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists. Unknown keys are rejected so typos fail loudly.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		return nil, fmt.Errorf("config: unknown key %q in %s", undecoded.String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:         "./propstake-data",
		HoldersShareBps: 5100,
		RewardSteps: []RateStep{
			{TotalStaked: "0", RewardPerBlock: "120000000000000000"},
		},
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be configured")
	}
	if c.HoldersShareBps > 10_000 {
		return fmt.Errorf("config: HoldersShareBps must not exceed 10_000")
	}
	if len(c.RewardSteps) == 0 {
		return fmt.Errorf("config: at least one reward step is required")
	}
	for i, step := range c.RewardSteps {
		if _, err := parseAmount(step.TotalStaked); err != nil {
			return fmt.Errorf("config: RewardSteps[%d].TotalStaked: %w", i, err)
		}
		if _, err := parseAmount(step.RewardPerBlock); err != nil {
			return fmt.Errorf("config: RewardSteps[%d].RewardPerBlock: %w", i, err)
		}
	}
	return nil
}

// SplitPolicy returns the configured holders/interest split.
func (c *Config) SplitPolicy() lockup.BpsSplitPolicy {
	return lockup.BpsSplitPolicy{Bps: c.HoldersShareBps}
}

// Allocator builds the step allocator from the configured rate table.
func (c *Config) Allocator() (*lockup.StepAllocator, error) {
	steps := make([]lockup.RateStep, 0, len(c.RewardSteps))
	for i, step := range c.RewardSteps {
		threshold, err := parseAmount(step.TotalStaked)
		if err != nil {
			return nil, fmt.Errorf("config: RewardSteps[%d].TotalStaked: %w", i, err)
		}
		rate, err := parseAmount(step.RewardPerBlock)
		if err != nil {
			return nil, fmt.Errorf("config: RewardSteps[%d].RewardPerBlock: %w", i, err)
		}
		steps = append(steps, lockup.RateStep{Threshold: threshold, Rate: rate})
	}
	return lockup.NewStepAllocator(steps), nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty amount")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", raw)
	}
	return value, nil
}
