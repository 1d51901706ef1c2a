// Package poller periodically reads the climate device, the external temperature
// sensor and any helper entities from Home Assistant, and publishes a consolidated
// Update to all subscribers.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clambin/splitmon/internal/homeassistant"
	"github.com/clambin/splitmon/pkg/pubsub"
	"golang.org/x/sync/errgroup"
)

type Poller interface {
	Subscribe() chan Update
	Unsubscribe(ch chan Update)
	Refresh()
}

type StateGetter interface {
	GetState(ctx context.Context, entityID string) (homeassistant.Entity, error)
}

// Entities lists the entity ids to poll. Climate and Sensor are required;
// the helper toggles are optional.
type Entities struct {
	Climate        string
	Sensor         string
	HeatingEnabled string
	CoolingEnabled string
}

var _ Poller = &EntityPoller{}

type EntityPoller struct {
	*pubsub.Publisher[Update]
	client   StateGetter
	entities Entities
	interval time.Duration
	logger   *slog.Logger
	refresh  chan struct{}
}

func New(client StateGetter, entities Entities, interval time.Duration, logger *slog.Logger) *EntityPoller {
	return &EntityPoller{
		Publisher: pubsub.New[Update](logger.With(slog.String("component", "pubsub"))),
		client:    client,
		entities:  entities,
		interval:  interval,
		logger:    logger,
		refresh:   make(chan struct{}, 1),
	}
}

func (p *EntityPoller) Run(ctx context.Context) error {
	p.logger.Debug("started", slog.Duration("interval", p.interval))
	defer p.logger.Debug("stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.refresh:
		}

		if err := p.poll(ctx); err != nil {
			p.logger.Warn("poll failed; skipping this cycle", slog.Any("err", err))
		}
	}
}

// Refresh forces an immediate poll. It never blocks: if a refresh is already
// pending, or the poller has stopped, the request is dropped.
func (p *EntityPoller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *EntityPoller) poll(ctx context.Context) error {
	start := time.Now()
	update, err := p.update(ctx)
	if err != nil {
		return err
	}
	p.Publisher.Publish(update)
	p.logger.Debug("poll completed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (p *EntityPoller) update(ctx context.Context) (Update, error) {
	update := Update{Timestamp: time.Now()}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		update.Climate, err = p.getClimate(gCtx)
		return err
	})
	g.Go(func() (err error) {
		update.ExternalTemperature, err = p.getExternalTemperature(gCtx)
		return err
	})
	g.Go(func() error {
		update.Heating = p.getToggle(gCtx, p.entities.HeatingEnabled)
		update.Cooling = p.getToggle(gCtx, p.entities.CoolingEnabled)
		return nil
	})

	err := g.Wait()
	return update, err
}

func (p *EntityPoller) getClimate(ctx context.Context) (Climate, error) {
	entity, err := p.client.GetState(ctx, p.entities.Climate)
	if err != nil {
		return Climate{}, err
	}
	climate := Climate{EntityID: entity.ID, Mode: entity.State}
	switch climate.Mode {
	case "", "unavailable", "unknown":
		return Climate{}, errors.New(p.entities.Climate + ": entity unavailable")
	}
	if climate.Setpoint, err = entity.FloatAttribute("temperature"); err != nil {
		return Climate{}, err
	}
	if climate.MinTemp, err = entity.FloatAttribute("min_temp"); err != nil {
		climate.MinTemp = DefaultMinTemp
	}
	if climate.MaxTemp, err = entity.FloatAttribute("max_temp"); err != nil {
		climate.MaxTemp = DefaultMaxTemp
	}
	return climate, nil
}

func (p *EntityPoller) getExternalTemperature(ctx context.Context) (float64, error) {
	entity, err := p.client.GetState(ctx, p.entities.Sensor)
	if err != nil {
		return 0, err
	}
	return entity.Float()
}

// getToggle reads an optional helper entity. A missing or unreadable helper is
// reported as unconfigured rather than failing the poll.
func (p *EntityPoller) getToggle(ctx context.Context, entityID string) Toggle {
	if entityID == "" {
		return Toggle{}
	}
	entity, err := p.client.GetState(ctx, entityID)
	if err == nil {
		var enabled bool
		if enabled, err = entity.On(); err == nil {
			return Toggle{Configured: true, Enabled: enabled}
		}
	}
	p.logger.Warn("helper entity unreadable; ignoring it", slog.String("entity", entityID), slog.Any("err", err))
	return Toggle{}
}
