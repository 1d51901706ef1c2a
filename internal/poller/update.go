package poller

import (
	"log/slog"
	"time"
)

// Default setpoint bounds, used when the climate entity doesn't report min_temp/max_temp.
const (
	DefaultMinTemp = 55
	DefaultMaxTemp = 82
)

// An Update is a consolidated snapshot of all entities the controller works with.
type Update struct {
	Climate             Climate
	ExternalTemperature float64
	Heating             Toggle
	Cooling             Toggle
	Timestamp           time.Time
}

// Climate is the state of the mini-split's climate entity.
type Climate struct {
	EntityID string
	Mode     string
	Setpoint float64
	MinTemp  float64
	MaxTemp  float64
}

// Clamp limits a target setpoint to the device's reported bounds.
func (c Climate) Clamp(target float64) float64 {
	return min(max(target, c.MinTemp), c.MaxTemp)
}

// A Toggle is the state of an optional input_boolean helper entity. An unconfigured
// or unreadable toggle allows the behavior it gates.
type Toggle struct {
	Configured bool
	Enabled    bool
}

func (t Toggle) Allows() bool {
	return !t.Configured || t.Enabled
}

func (u Update) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("climate",
			slog.String("mode", u.Climate.Mode),
			slog.Float64("setpoint", u.Climate.Setpoint),
		),
		slog.Float64("external", u.ExternalTemperature),
	)
}
