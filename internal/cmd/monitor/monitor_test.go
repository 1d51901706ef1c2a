package monitor

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clambin/splitmon/internal/controller"
	"github.com/clambin/splitmon/internal/homeassistant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func Test_makeTasks(t *testing.T) {
	tests := []struct {
		name   string
		config string
		length int
	}{
		{
			name: "base",
			config: `
homeassistant:
  url: http://localhost:8123
  token: "1234"
climate:
  entity: climate.living_room
  sensor: sensor.outside_temperature
store:
  path: state.json
`,
			// poller, collector, prometheus server, controller, health, http server
			length: 6,
		},
		{
			name: "with slack",
			config: `
homeassistant:
  url: http://localhost:8123
  token: "1234"
climate:
  entity: climate.living_room
  sensor: sensor.outside_temperature
store:
  path: state.json
slack:
  token: xoxb-1234
  channel: C1234
`,
			length: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := viper.New()
			cfg.SetConfigType("yaml")
			require.NoError(t, cfg.ReadConfig(bytes.NewBufferString(tt.config)))
			cfg.Set("store.path", filepath.Join(t.TempDir(), "state.json"))

			tasks := makeTasks(cfg, controller.RulesConfiguration{}, "1.0", prometheus.NewPedanticRegistry(), discardLogger)
			assert.Len(t, tasks, tt.length)
		})
	}
}

func Test_makeNotifiers_MQTT(t *testing.T) {
	orig := mqttConnectTimeout
	mqttConnectTimeout = 50 * time.Millisecond
	defer func() { mqttConnectTimeout = orig }()

	cfg := viper.New()
	cfg.Set("climate.entity", "climate.living_room")
	cfg.Set("mqtt.broker", "tcp://127.0.0.1:1")
	cfg.Set("mqtt.topic", "splitmon/events")

	api := homeassistant.New("http://localhost:8123", "1234", prometheus.NewRegistry())
	// the broker is unreachable: the connect error is logged and the notifier still
	// registers, leaving paho to retry in the background
	notifiers := makeNotifiers(cfg, api, "1.0", discardLogger)
	assert.Len(t, notifiers, 3)
}

func Test_maybeLoadRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr assert.ErrorAssertionFunc
		check   func(t *testing.T, rules controller.RulesConfiguration)
	}{
		{
			name: "valid",
			content: `
cooling:
  triggerThreshold: 2.5
helpers:
  coolingEnabledEntity: input_boolean.cooling_enabled
`,
			wantErr: assert.NoError,
			check: func(t *testing.T, rules controller.RulesConfiguration) {
				assert.Equal(t, 2.5, rules.Cooling.TriggerThreshold)
				assert.Equal(t, "input_boolean.cooling_enabled", rules.Helpers.CoolingEnabled)
			},
		},
		{
			name:    "invalid",
			content: `not: [valid`,
			wantErr: assert.Error,
		},
		{
			name:    "missing",
			content: ``,
			wantErr: assert.NoError,
			check: func(t *testing.T, rules controller.RulesConfiguration) {
				assert.Equal(t, controller.RulesConfiguration{}, rules)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			rules, err := maybeLoadRules(path, discardLogger)
			tt.wantErr(t, err)
			if tt.check != nil {
				tt.check(t, rules)
			}
		})
	}
}

func Test_New_Validation(t *testing.T) {
	cfg := viper.New()
	cfg.Set("homeassistant.token", "")
	_, err := New(cfg, "1.0", discardLogger)
	assert.Error(t, err)

	cfg.Set("homeassistant.token", "1234")
	_, err = New(cfg, "1.0", discardLogger)
	assert.Error(t, err)
}
