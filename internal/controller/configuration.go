package controller

import (
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration holds the thresholds that drive the decision cycle.
//
// TriggerThreshold, ResetThreshold and AdjustmentStep apply to both directions
// unless overridden per mode in Heating/Cooling. A mode with a ForceTemperature
// adjusts to that fixed value instead of stepping away from the desired setpoint.
type Configuration struct {
	ClimateEntity    string
	ValidMin         float64
	ValidMax         float64
	AdjustmentStep   float64
	TriggerThreshold float64
	ResetThreshold   float64
	Cooldown         time.Duration
	// ModeGap is the minimum separation between a heating adjustment and a
	// subsequent cooling adjustment (and vice versa), to prevent short-cycling.
	ModeGap time.Duration
	Heating ModeConfiguration
	Cooling ModeConfiguration
}

// ModeConfiguration overrides the flat thresholds for one direction.
type ModeConfiguration struct {
	Enabled          *bool   `yaml:"enabled"`
	TriggerThreshold float64 `yaml:"triggerThreshold"`
	ResetThreshold   float64 `yaml:"resetThreshold"`
	ForceTemperature float64 `yaml:"forceTemperature"`
	ResetTemperature float64 `yaml:"resetTemperature"`
}

func (m ModeConfiguration) enabled() bool {
	return m.Enabled == nil || *m.Enabled
}

func (c Configuration) trigger(m ModeConfiguration) float64 {
	if m.TriggerThreshold > 0 {
		return m.TriggerThreshold
	}
	return c.TriggerThreshold
}

func (c Configuration) reset(m ModeConfiguration) float64 {
	if m.ResetThreshold > 0 {
		return m.ResetThreshold
	}
	return c.ResetThreshold
}

func (c Configuration) validRangeContains(value float64) bool {
	return value >= c.ValidMin && value <= c.ValidMax
}

// RulesConfiguration is the optional rules.yaml file: per-mode thresholds plus the
// helper entities that enable/disable each direction.
type RulesConfiguration struct {
	Heating ModeConfiguration `yaml:"heating"`
	Cooling ModeConfiguration `yaml:"cooling"`
	Helpers Helpers           `yaml:"helpers"`
}

type Helpers struct {
	HeatingEnabled string `yaml:"heatingEnabledEntity"`
	CoolingEnabled string `yaml:"coolingEnabledEntity"`
}

func LoadRules(in io.Reader, logger *slog.Logger) (RulesConfiguration, error) {
	var rules RulesConfiguration
	if err := yaml.NewDecoder(in).Decode(&rules); err != nil {
		return RulesConfiguration{}, err
	}
	logger.Info("mode rules found",
		slog.Bool("heating", rules.Heating.enabled()),
		slog.Bool("cooling", rules.Cooling.enabled()),
	)
	return rules, nil
}
