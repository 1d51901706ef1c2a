package controller

import (
	"fmt"
	"math"
	"time"

	"github.com/clambin/go-common/set"
	"github.com/clambin/splitmon/internal/poller"
)

type action int

const (
	actionNone action = iota
	// actionAdopt adopts a manual setpoint change as the new desired temperature.
	actionAdopt
	// actionSkipOverride honors a manual override for one cycle.
	actionSkipOverride
	// actionAdjust forces the setpoint away from the desired temperature.
	actionAdjust
	// actionReset restores the setpoint once the room has stabilized.
	actionReset
)

type direction int

const (
	directionNone direction = iota
	directionHeat
	directionCool
)

func (d direction) String() string {
	switch d {
	case directionHeat:
		return "heat"
	case directionCool:
		return "cool"
	default:
		return "none"
	}
}

type decision struct {
	action    action
	direction direction
	target    float64
	reason    string
	// skip categorizes an actionNone decision for metrics.
	skip string
}

// evaluate runs one decision cycle against the latest update. It is a pure
// function of the configuration, the runtime state and the clock; all side
// effects (service calls, state mutation, persistence) happen in the caller.
func evaluate(cfg Configuration, s State, u poller.Update, now time.Time) decision {
	if s.inCooldown(now, cfg.Cooldown) {
		remaining := (cfg.Cooldown - now.Sub(s.LastAdjustment)).Round(time.Second)
		return decision{action: actionNone, skip: "cooldown", reason: fmt.Sprintf("in cooldown period, %s remaining", remaining)}
	}

	setpoint := u.Climate.Setpoint

	// a setpoint inside the valid range reflects user intent. if it changed,
	// adopt it and honor it for this cycle. setpoints the controller wrote itself
	// (step targets, reset targets) are not overrides.
	if cfg.validRangeContains(setpoint) && (!s.DesiredSet || setpoint != s.Desired) && manuallyAdjusted(cfg, s, u) {
		return decision{
			action: actionAdopt,
			target: setpoint,
			reason: fmt.Sprintf("manual override detected, new setpoint: %g", setpoint),
		}
	}

	if !s.DesiredSet {
		return decision{action: actionNone, skip: "no_desired", reason: "no desired temperature known yet"}
	}

	if s.OverrideDetected {
		return decision{action: actionSkipOverride, reason: "manual override active, skipping one cycle"}
	}

	diff := u.ExternalTemperature - s.Desired

	if d := evaluateTrigger(cfg, s, u, diff, now); d.action != actionNone {
		return d
	}
	if d := evaluateReset(cfg, s, u, diff); d.action != actionNone {
		return d
	}
	return decision{action: actionNone, skip: "thresholds", reason: "within thresholds"}
}

func evaluateTrigger(cfg Configuration, s State, u poller.Update, diff float64, now time.Time) decision {
	var (
		dir      direction
		mode     ModeConfiguration
		allowed  bool
		lastPeer time.Time
	)
	switch {
	case diff < 0:
		dir, mode, allowed, lastPeer = directionHeat, cfg.Heating, u.Heating.Allows(), s.LastCool
	case diff > 0:
		dir, mode, allowed, lastPeer = directionCool, cfg.Cooling, u.Cooling.Allows(), s.LastHeat
	default:
		return decision{action: actionNone}
	}

	if math.Abs(diff) <= cfg.trigger(mode) {
		return decision{action: actionNone}
	}
	if !mode.enabled() || !allowed {
		return decision{action: actionNone, skip: "disabled", reason: dir.String() + "ing is disabled"}
	}
	if !lastPeer.IsZero() && now.Sub(lastPeer) < cfg.ModeGap {
		return decision{action: actionNone, skip: "short_cycle", reason: fmt.Sprintf("%s adjustment too soon after %s", dir, opposite(dir))}
	}

	target := mode.ForceTemperature
	reason := fmt.Sprintf("external temperature %g° %s than setpoint", math.Abs(diff), comparative(dir))
	if target == 0 {
		if dir == directionHeat {
			target = s.Desired - cfg.AdjustmentStep
		} else {
			target = s.Desired + cfg.AdjustmentStep
		}
	}
	clamped := u.Climate.Clamp(target)
	if clamped != target {
		reason += fmt.Sprintf(", capped at %g", clamped)
	}
	return decision{action: actionAdjust, direction: dir, target: clamped, reason: reason}
}

func evaluateReset(cfg Configuration, s State, u poller.Update, diff float64) decision {
	mode := cfg.Heating
	if diff > 0 {
		mode = cfg.Cooling
	}
	if math.Abs(diff) > cfg.reset(mode) {
		return decision{action: actionNone}
	}
	target := resetTarget(cfg, s, u.Climate.Mode)
	if u.Climate.Setpoint == target {
		return decision{action: actionNone}
	}
	return decision{action: actionReset, target: target, reason: "external temperature within tolerance"}
}

// resetTarget is the setpoint an adjustment is undone to: the mode's configured
// reset temperature if set, otherwise the desired temperature.
func resetTarget(cfg Configuration, s State, climateMode string) float64 {
	var mode ModeConfiguration
	switch climateMode {
	case "heat":
		mode = cfg.Heating
	case "cool":
		mode = cfg.Cooling
	}
	if mode.ResetTemperature != 0 {
		return mode.ResetTemperature
	}
	return s.Desired
}

// knownTargets are all setpoints the controller could have written itself for the
// current operating mode. Anything else on the device is a manual adjustment.
func knownTargets(cfg Configuration, s State, u poller.Update) set.Set[float64] {
	targets := set.New[float64](resetTarget(cfg, s, u.Climate.Mode))
	if s.DesiredSet {
		targets.Add(s.Desired)
		targets.Add(u.Climate.Clamp(s.Desired - cfg.AdjustmentStep))
		targets.Add(u.Climate.Clamp(s.Desired + cfg.AdjustmentStep))
	}
	if cfg.Heating.ForceTemperature != 0 {
		targets.Add(u.Climate.Clamp(cfg.Heating.ForceTemperature))
	}
	if cfg.Cooling.ForceTemperature != 0 {
		targets.Add(u.Climate.Clamp(cfg.Cooling.ForceTemperature))
	}
	return targets
}

func manuallyAdjusted(cfg Configuration, s State, u poller.Update) bool {
	return !knownTargets(cfg, s, u).Contains(u.Climate.Setpoint)
}

func opposite(d direction) direction {
	if d == directionHeat {
		return directionCool
	}
	return directionHeat
}

func comparative(d direction) string {
	if d == directionHeat {
		return "lower"
	}
	return "higher"
}
