// Package collector exposes the latest poll as Prometheus metrics.
package collector

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clambin/splitmon/internal/poller"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	externalTemperature = prometheus.NewDesc(
		prometheus.BuildFQName("splitmon", "external", "temperature"),
		"External temperature reported by the sensor",
		nil,
		nil,
	)
	climateSetpoint = prometheus.NewDesc(
		prometheus.BuildFQName("splitmon", "climate", "setpoint"),
		"Current setpoint of the climate device",
		[]string{"entity"},
		nil,
	)
	climateMode = prometheus.NewDesc(
		prometheus.BuildFQName("splitmon", "climate", "mode"),
		"Operating mode of the climate device. Always 1. See label 'mode'",
		[]string{"entity", "mode"},
		nil,
	)
	climateMinTemp = prometheus.NewDesc(
		prometheus.BuildFQName("splitmon", "climate", "min_temp"),
		"Lowest setpoint the climate device accepts",
		[]string{"entity"},
		nil,
	)
	climateMaxTemp = prometheus.NewDesc(
		prometheus.BuildFQName("splitmon", "climate", "max_temp"),
		"Highest setpoint the climate device accepts",
		[]string{"entity"},
		nil,
	)
	modeEnabled = prometheus.NewDesc(
		prometheus.BuildFQName("splitmon", "mode", "enabled"),
		"1 if the helper entity allows this direction. Unconfigured helpers report 1",
		[]string{"direction"},
		nil,
	)
)

type Collector struct {
	Poller     poller.Poller
	Logger     *slog.Logger
	lock       sync.RWMutex
	lastUpdate *poller.Update
}

var _ prometheus.Collector = &Collector{}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Poller.Subscribe()
	defer c.Poller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			c.lock.Lock()
			c.lastUpdate = &update
			c.lock.Unlock()
		}
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- externalTemperature
	ch <- climateSetpoint
	ch <- climateMode
	ch <- climateMinTemp
	ch <- climateMaxTemp
	ch <- modeEnabled
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.lastUpdate == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(externalTemperature, prometheus.GaugeValue, c.lastUpdate.ExternalTemperature)

	climate := c.lastUpdate.Climate
	ch <- prometheus.MustNewConstMetric(climateSetpoint, prometheus.GaugeValue, climate.Setpoint, climate.EntityID)
	ch <- prometheus.MustNewConstMetric(climateMode, prometheus.GaugeValue, 1, climate.EntityID, climate.Mode)
	ch <- prometheus.MustNewConstMetric(climateMinTemp, prometheus.GaugeValue, climate.MinTemp, climate.EntityID)
	ch <- prometheus.MustNewConstMetric(climateMaxTemp, prometheus.GaugeValue, climate.MaxTemp, climate.EntityID)

	ch <- prometheus.MustNewConstMetric(modeEnabled, prometheus.GaugeValue, toggleValue(c.lastUpdate.Heating), "heat")
	ch <- prometheus.MustNewConstMetric(modeEnabled, prometheus.GaugeValue, toggleValue(c.lastUpdate.Cooling), "cool")
}

func toggleValue(t poller.Toggle) float64 {
	if t.Allows() {
		return 1
	}
	return 0
}
