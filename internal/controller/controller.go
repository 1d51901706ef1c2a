// Package controller watches the poller's updates and nudges the climate device's
// setpoint: it forces the setpoint away from the desired temperature when the
// external temperature drifts too far, and restores it once the room has
// stabilized. Manual setpoint changes inside the valid range are adopted as the
// new desired temperature.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clambin/splitmon/internal/controller/notifier"
	"github.com/clambin/splitmon/internal/poller"
	"github.com/clambin/splitmon/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

type ServiceCaller interface {
	CallService(ctx context.Context, domain, service string, payload map[string]any) error
}

type Storer interface {
	Load() (store.State, error)
	Save(store.State) error
}

type commandKind int

const (
	cmdForceAdjustment commandKind = iota
	cmdSetAutomation
	cmdClearOverride
	cmdForceReset
)

type command struct {
	kind    commandKind
	enabled bool
}

// Controller runs the decision cycle. All state lives in the Run goroutine:
// updates and operator commands are serialized over channels, so the runtime
// state never needs a lock.
type Controller struct {
	poller   poller.Poller
	client   ServiceCaller
	store    Storer
	notifier notifier.Notifier
	metrics  *Metrics
	logger   *slog.Logger
	cfg      Configuration

	commands chan command

	state      State
	enabled    bool
	lastUpdate poller.Update
	hasUpdate  bool
}

func New(cfg Configuration, p poller.Poller, client ServiceCaller, s Storer, n notifier.Notifier, m *Metrics, logger *slog.Logger) *Controller {
	if m == nil {
		m = NewMetrics(prometheus.NewRegistry())
	}
	c := &Controller{
		poller:   p,
		client:   client,
		store:    s,
		notifier: n,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
		commands: make(chan command, 16),
		enabled:  true,
	}
	c.restore()
	return c
}

// restore seeds the runtime state from the persisted store, so the desired
// setpoint and the cooldown survive a restart.
func (c *Controller) restore() {
	if c.store == nil {
		return
	}
	persisted, err := c.store.Load()
	if err != nil {
		c.logger.Warn("could not load persisted state; starting fresh", slog.Any("err", err))
		return
	}
	if persisted.RealSetpoint != nil {
		c.state.Desired = *persisted.RealSetpoint
		c.state.DesiredSet = true
	}
	if persisted.LastAdjustment != nil {
		c.state.LastAdjustment = *persisted.LastAdjustment
	}
}

func (c *Controller) Run(ctx context.Context) error {
	ch := c.poller.Subscribe()
	defer c.poller.Unsubscribe(ch)

	c.logger.Debug("started")
	defer c.logger.Debug("stopped")

	c.metrics.automation.Set(1)
	if c.state.DesiredSet {
		c.metrics.desired.Set(c.state.Desired)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			c.processUpdate(ctx, update)
		case cmd := <-c.commands:
			c.processCommand(ctx, cmd)
		}
	}
}

func (c *Controller) processUpdate(ctx context.Context, update poller.Update) {
	c.lastUpdate, c.hasUpdate = update, true

	if !c.enabled {
		c.logger.Debug("automation disabled; skipping cycle")
		c.metrics.skipped.WithLabelValues("automation_off").Inc()
		return
	}

	d := evaluate(c.cfg, c.state, update, time.Now())
	switch d.action {
	case actionAdopt:
		c.adopt(d)
	case actionSkipOverride:
		c.state.OverrideDetected = false
		c.logger.Debug(d.reason)
		c.metrics.skipped.WithLabelValues("override").Inc()
	case actionAdjust:
		c.adjust(ctx, d, update)
	case actionReset:
		c.reset(ctx, d, update)
	default:
		c.logger.Debug("no action needed", slog.String("reason", d.reason), slog.Any("update", update))
		if d.skip != "" {
			c.metrics.skipped.WithLabelValues(d.skip).Inc()
		}
	}
}

func (c *Controller) adopt(d decision) {
	c.state.Desired = d.target
	c.state.DesiredSet = true
	c.state.OverrideDetected = true
	c.persist()
	c.metrics.overrides.Inc()
	c.metrics.desired.Set(d.target)
	c.logger.Info(d.reason)
	c.notifier.Notify(fmt.Sprintf("Manual override detected. New setpoint: %g", d.target))
}

func (c *Controller) adjust(ctx context.Context, d decision, update poller.Update) {
	if err := c.setTemperature(ctx, d.target); err != nil {
		c.logger.Error("failed to adjust setpoint", slog.Float64("target", d.target), slog.Any("err", err))
		return
	}
	now := time.Now()
	c.state.LastAdjustment = now
	c.state.Adjusted = true
	switch d.direction {
	case directionHeat:
		c.state.LastHeat = now
	case directionCool:
		c.state.LastCool = now
	}
	c.persist()
	c.metrics.adjustments.WithLabelValues(d.direction.String()).Inc()
	c.metrics.adjusted.Set(1)
	c.logger.Info("setpoint adjusted",
		slog.Float64("from", update.Climate.Setpoint),
		slog.Float64("to", d.target),
		slog.String("reason", d.reason),
	)
	c.notifier.Notify(fmt.Sprintf("Adjusted setpoint from %g to %g: %s", update.Climate.Setpoint, d.target, d.reason))
}

func (c *Controller) reset(ctx context.Context, d decision, update poller.Update) {
	if err := c.setTemperature(ctx, d.target); err != nil {
		c.logger.Error("failed to reset setpoint", slog.Float64("target", d.target), slog.Any("err", err))
		return
	}
	now := time.Now()
	c.state.LastAdjustment = now
	c.state.Adjusted = false
	c.persist()
	c.metrics.resets.Inc()
	c.metrics.adjusted.Set(0)
	c.logger.Info("setpoint reset",
		slog.Float64("from", update.Climate.Setpoint),
		slog.Float64("to", d.target),
	)
	c.notifier.Notify(fmt.Sprintf("Reset setpoint from %g to %g: %s", update.Climate.Setpoint, d.target, d.reason))
}

func (c *Controller) processCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdForceAdjustment:
		c.state.LastAdjustment = time.Time{}
		c.persist()
		c.logger.Info("cooldown cleared; forcing a poll")
		c.poller.Refresh()
	case cmdSetAutomation:
		c.enabled = cmd.enabled
		var val float64
		if cmd.enabled {
			val = 1
		}
		c.metrics.automation.Set(val)
		c.logger.Info("automation toggled", slog.Bool("enabled", cmd.enabled))
	case cmdClearOverride:
		c.state.OverrideDetected = false
		c.logger.Info("manual override cleared")
	case cmdForceReset:
		c.forceReset(ctx)
	}
}

// forceReset reverts a setpoint that doesn't match anything the controller would
// have written itself, bypassing the cooldown.
func (c *Controller) forceReset(ctx context.Context) {
	if !c.hasUpdate {
		c.logger.Warn("force reset requested before the first poll; ignoring")
		return
	}
	update := c.lastUpdate
	if !manuallyAdjusted(c.cfg, c.state, update) {
		c.logger.Info("force reset: setpoint already matches a known target", slog.Float64("setpoint", update.Climate.Setpoint))
		return
	}
	target := resetTarget(c.cfg, c.state, update.Climate.Mode)
	if err := c.setTemperature(ctx, target); err != nil {
		c.logger.Error("failed to force reset setpoint", slog.Float64("target", target), slog.Any("err", err))
		return
	}
	now := time.Now()
	c.state.LastAdjustment = now
	c.state.Adjusted = false
	c.persist()
	c.metrics.resets.Inc()
	c.metrics.adjusted.Set(0)
	c.notifier.Notify(fmt.Sprintf("Force reset: setpoint %g looks manually adjusted. Reverting to %g", update.Climate.Setpoint, target))
}

// ForceAdjustment clears the cooldown and triggers an immediate poll.
func (c *Controller) ForceAdjustment() {
	c.enqueue(command{kind: cmdForceAdjustment})
}

// SetAutomation enables or disables the decision cycle. Polling continues either
// way, so the exporter keeps reporting.
func (c *Controller) SetAutomation(enabled bool) {
	c.enqueue(command{kind: cmdSetAutomation, enabled: enabled})
}

// ClearOverride drops a pending manual override without waiting for the next cycle.
func (c *Controller) ClearOverride() {
	c.enqueue(command{kind: cmdClearOverride})
}

// ForceReset reverts a manually adjusted setpoint to the reset target, bypassing
// the cooldown.
func (c *Controller) ForceReset() {
	c.enqueue(command{kind: cmdForceReset})
}

func (c *Controller) enqueue(cmd command) {
	select {
	case c.commands <- cmd:
	default:
		c.logger.Warn("command queue full; dropping command")
	}
}

func (c *Controller) setTemperature(ctx context.Context, target float64) error {
	return c.client.CallService(ctx, "climate", "set_temperature", map[string]any{
		"entity_id":   c.cfg.ClimateEntity,
		"temperature": target,
	})
}

func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	var persisted store.State
	if c.state.DesiredSet {
		desired := c.state.Desired
		persisted.RealSetpoint = &desired
	}
	if !c.state.LastAdjustment.IsZero() {
		last := c.state.LastAdjustment
		persisted.LastAdjustment = &last
	}
	if err := c.store.Save(persisted); err != nil {
		c.logger.Warn("failed to persist state", slog.Any("err", err))
	}
}
