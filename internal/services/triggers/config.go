package triggers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/utils"
)

// Fixed significance floors. Percentage triggers are suppressed below these
// so near-zero baselines do not produce noise suggestions.
const (
	MinAverageOrder  = 50.0
	MinWindowRevenue = 100.0
)

// Per-trigger result caps.
const (
	churnCap     = 5
	growthCap    = 3
	newClientCap = 3
	callbackCap  = 3
	dropCap      = 3
)

// Config holds the numeric knobs of the five triggers. Immutable per
// analysis run.
type Config struct {
	ChurnDays         int     `yaml:"churn_days"`
	NewClientDays     int     `yaml:"new_client_days"`
	CallbackCheckDays int     `yaml:"callback_check_days"`
	DropPercent       float64 `yaml:"drop_percent"`
	GrowthPercent     float64 `yaml:"growth_percent"`
}

func Default() Config {
	return Config{
		ChurnDays:         21,
		NewClientDays:     30,
		CallbackCheckDays: 14,
		DropPercent:       30,
		GrowthPercent:     30,
	}
}

// Load overlays a YAML file on top of the defaults. Missing keys keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("trigger config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("trigger config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv resolves the run configuration: TRIGGER_CONFIG_YAML if set (falling
// back to defaults on a broken file), then per-knob env overrides.
func FromEnv(log *logger.Logger) Config {
	cfg := Default()
	if path := utils.GetEnv("TRIGGER_CONFIG_YAML", "", log); path != "" {
		loaded, err := Load(path)
		if err != nil && log != nil {
			log.Warn("trigger config file unusable, using defaults", "path", path, "error", err)
		}
		cfg = loaded
	}
	cfg.ChurnDays = utils.GetEnvAsInt("TRIGGER_CHURN_DAYS", cfg.ChurnDays, log)
	cfg.NewClientDays = utils.GetEnvAsInt("TRIGGER_NEW_CLIENT_DAYS", cfg.NewClientDays, log)
	cfg.CallbackCheckDays = utils.GetEnvAsInt("TRIGGER_CALLBACK_CHECK_DAYS", cfg.CallbackCheckDays, log)
	cfg.DropPercent = utils.GetEnvAsFloat("TRIGGER_DROP_PERCENT", cfg.DropPercent, log)
	cfg.GrowthPercent = utils.GetEnvAsFloat("TRIGGER_GROWTH_PERCENT", cfg.GrowthPercent, log)
	return cfg
}
