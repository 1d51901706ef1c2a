// Package monitor assembles and runs all of splitmon's moving parts: the poller,
// the controller, the Prometheus exporter and the health/ops endpoints.
package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/clambin/go-common/taskmanager"
	"github.com/clambin/go-common/taskmanager/httpserver"
	promserver "github.com/clambin/go-common/taskmanager/prometheus"
	"github.com/clambin/splitmon/internal/collector"
	"github.com/clambin/splitmon/internal/controller"
	"github.com/clambin/splitmon/internal/controller/notifier"
	"github.com/clambin/splitmon/internal/health"
	"github.com/clambin/splitmon/internal/homeassistant"
	"github.com/clambin/splitmon/internal/ops"
	"github.com/clambin/splitmon/internal/poller"
	"github.com/clambin/splitmon/internal/store"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mqttConnectTimeout = 5 * time.Second

var Cmd = cobra.Command{
	Use:   "monitor",
	Short: "Monitor the external temperature and nudge the mini split's setpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := slog.Default()
		logger.Info("starting splitmon", slog.String("version", cmd.Root().Version))
		m, err := New(viper.GetViper(), cmd.Root().Version, logger)
		if err != nil {
			return err
		}
		return m.Run(cmd.Context())
	},
}

func New(cfg *viper.Viper, version string, logger *slog.Logger) (*taskmanager.Manager, error) {
	if cfg.GetString("homeassistant.token") == "" {
		return nil, errors.New("no Home Assistant token configured")
	}
	if cfg.GetString("climate.entity") == "" || cfg.GetString("climate.sensor") == "" {
		return nil, errors.New("climate.entity and climate.sensor must be configured")
	}

	// do we have per-mode rules?
	rules, err := maybeLoadRules(filepath.Join(filepath.Dir(cfg.ConfigFileUsed()), "rules.yaml"), logger)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}

	return taskmanager.New(makeTasks(cfg, rules, version, prometheus.DefaultRegisterer, logger)...), nil
}

func maybeLoadRules(path string, logger *slog.Logger) (controller.RulesConfiguration, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return controller.RulesConfiguration{}, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return controller.LoadRules(f, logger)
}

func makeTasks(cfg *viper.Viper, rules controller.RulesConfiguration, version string, registry prometheus.Registerer, l *slog.Logger) []taskmanager.Task {
	var tasks []taskmanager.Task

	api := homeassistant.New(cfg.GetString("homeassistant.url"), cfg.GetString("homeassistant.token"), registry)

	// Poller
	p := poller.New(api, poller.Entities{
		Climate:        cfg.GetString("climate.entity"),
		Sensor:         cfg.GetString("climate.sensor"),
		HeatingEnabled: rules.Helpers.HeatingEnabled,
		CoolingEnabled: rules.Helpers.CoolingEnabled,
	}, cfg.GetDuration("poller.interval"), l.With("component", "poller"))
	tasks = append(tasks, p)

	// Collector
	coll := &collector.Collector{Poller: p, Logger: l.With("component", "collector")}
	registry.MustRegister(coll)
	tasks = append(tasks, coll)

	// Prometheus server
	tasks = append(tasks, promserver.New(promserver.WithAddr(cfg.GetString("exporter.addr"))))

	// Controller
	c := controller.New(
		controllerConfiguration(cfg, rules),
		p,
		api,
		store.New(cfg.GetString("store.path"), l.With("component", "store")),
		makeNotifiers(cfg, api, version, l),
		controller.NewMetrics(registry),
		l.With("component", "controller"),
	)
	tasks = append(tasks, c)

	// Health & ops endpoints
	h := health.New(p, l.With("component", "health"))
	tasks = append(tasks, h)
	r := http.NewServeMux()
	r.Handle("/health", h)
	ops.New(c, l.With("component", "ops")).Register(r)
	tasks = append(tasks, httpserver.New(cfg.GetString("health.addr"), r))

	return tasks
}

func controllerConfiguration(cfg *viper.Viper, rules controller.RulesConfiguration) controller.Configuration {
	return controller.Configuration{
		ClimateEntity:    cfg.GetString("climate.entity"),
		ValidMin:         cfg.GetFloat64("climate.valid_range.min"),
		ValidMax:         cfg.GetFloat64("climate.valid_range.max"),
		AdjustmentStep:   cfg.GetFloat64("climate.adjustment_step"),
		TriggerThreshold: cfg.GetFloat64("climate.trigger_threshold"),
		ResetThreshold:   cfg.GetFloat64("climate.reset_threshold"),
		Cooldown:         cfg.GetDuration("climate.cooldown"),
		ModeGap:          cfg.GetDuration("climate.mode_gap"),
		Heating:          rules.Heating,
		Cooling:          rules.Cooling,
	}
}

func makeNotifiers(cfg *viper.Viper, api *homeassistant.Client, version string, l *slog.Logger) notifier.Notifiers {
	notifiers := notifier.Notifiers{
		notifier.SLogNotifier{Logger: l.With("component", "notifier")},
		&notifier.LogbookNotifier{
			LogbookSender: api,
			EntityID:      cfg.GetString("climate.entity"),
			Logger:        l.With("component", "logbook"),
		},
	}

	if token := cfg.GetString("slack.token"); token != "" {
		notifiers = append(notifiers, &notifier.SlackNotifier{
			SlackSender: slack.New(token),
			ChannelID:   cfg.GetString("slack.channel"),
			Logger:      l.With("component", "slack"),
		})
	}

	if broker := cfg.GetString("mqtt.broker"); broker != "" {
		opts := paho.NewClientOptions().
			AddBroker(broker).
			SetClientID("splitmon-" + version).
			SetAutoReconnect(true).
			SetConnectRetry(true)
		client := paho.NewClient(opts)
		if token := client.Connect(); !token.WaitTimeout(mqttConnectTimeout) {
			l.Warn("mqtt broker not reachable yet; retrying in the background", slog.String("broker", broker))
		} else if err := token.Error(); err != nil {
			l.Error("failed to connect to mqtt broker", slog.String("broker", broker), slog.Any("err", err))
		}
		notifiers = append(notifiers, &notifier.MQTTNotifier{
			Publisher: client,
			Topic:     cfg.GetString("mqtt.topic"),
			Logger:    l.With("component", "mqtt"),
		})
	}

	return notifiers
}
