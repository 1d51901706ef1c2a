package controller

import (
	"time"
)

// State is the controller's runtime state. Only the controller's Run loop mutates
// it, and only after the corresponding service call has succeeded.
type State struct {
	// Desired is the setpoint the user actually wants, as opposed to a value the
	// controller forced. It is only ever adopted from a reading inside the
	// configured valid range.
	Desired    float64
	DesiredSet bool
	// LastAdjustment drives the cooldown window.
	LastAdjustment time.Time
	// Adjusted indicates a forced, out-of-range setpoint is currently in effect.
	Adjusted bool
	// OverrideDetected suppresses exactly one decision cycle after the user
	// manually changed the setpoint.
	OverrideDetected bool
	// LastHeat/LastCool prevent short-cycling between directions.
	LastHeat time.Time
	LastCool time.Time
}

func (s State) inCooldown(now time.Time, cooldown time.Duration) bool {
	return !s.LastAdjustment.IsZero() && now.Sub(s.LastAdjustment) < cooldown
}
