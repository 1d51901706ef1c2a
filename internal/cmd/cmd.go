// Package cmd is the command line interface for splitmon.
package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/clambin/go-common/charmer"
	"github.com/clambin/splitmon/internal/cmd/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "splitmon",
		Short: "Setpoint controller for mini splits behind Home Assistant",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setLogger(viper.GetBool("debug"))
		},
	}
)

var args = charmer.Arguments{
	"debug": {Default: false, Help: "Log debug messages"},
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	_ = charmer.SetPersistentFlags(&RootCmd, viper.GetViper(), args)

	RootCmd.AddCommand(&monitor.Cmd)
}

var defaults = map[string]any{
	"homeassistant.url":         "http://homeassistant.local:8123",
	"homeassistant.token":       "",
	"climate.entity":            "",
	"climate.sensor":            "",
	"climate.valid_range.min":   64.0,
	"climate.valid_range.max":   74.0,
	"climate.adjustment_step":   10.0,
	"climate.trigger_threshold": 2.0,
	"climate.reset_threshold":   1.0,
	"climate.cooldown":          5 * time.Minute,
	"climate.mode_gap":          15 * time.Minute,
	"poller.interval":           time.Minute,
	"exporter.addr":             ":9090",
	"health.addr":               ":8080",
	"store.path":                "/var/lib/splitmon/state.json",
	"slack.token":               "",
	"slack.channel":             "",
	"mqtt.broker":               "",
	"mqtt.topic":                "splitmon/events",
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/splitmon/")
		viper.AddConfigPath("$HOME/.splitmon")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetEnvPrefix("SPLITMON")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		slog.Warn("no configuration file found; using defaults", slog.Any("err", err))
	}
}

func setLogger(debug bool) {
	var opts slog.HandlerOptions
	if debug {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &opts)))
}
