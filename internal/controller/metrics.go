package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	adjustments *prometheus.CounterVec
	resets      prometheus.Counter
	overrides   prometheus.Counter
	skipped     *prometheus.CounterVec
	desired     prometheus.Gauge
	adjusted    prometheus.Gauge
	automation  prometheus.Gauge
}

func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		adjustments: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "splitmon_controller_adjustments_total",
			Help: "number of setpoint adjustments, by direction",
		}, []string{"direction"}),
		resets: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "splitmon_controller_resets_total",
			Help: "number of setpoint resets back to the desired temperature",
		}),
		overrides: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "splitmon_controller_overrides_total",
			Help: "number of manual overrides adopted as the new desired temperature",
		}),
		skipped: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "splitmon_controller_skipped_cycles_total",
			Help: "number of decision cycles that took no action, by reason",
		}, []string{"reason"}),
		desired: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Name: "splitmon_controller_desired_temperature",
			Help: "the desired setpoint the controller maintains",
		}),
		adjusted: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Name: "splitmon_controller_adjusted",
			Help: "1 if a forced setpoint is currently in effect",
		}),
		automation: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Name: "splitmon_controller_automation_enabled",
			Help: "1 if the controller is allowed to make adjustments",
		}),
	}
}
