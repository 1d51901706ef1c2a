// Package health reports whether the poller is producing updates. Until the first
// update arrives, the endpoint reports unavailable and asks the poller to refresh.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/clambin/splitmon/internal/poller"
)

type Health struct {
	poller.Poller
	logger  *slog.Logger
	update  poller.Update
	updated bool
	lock    sync.RWMutex
}

func New(p poller.Poller, logger *slog.Logger) *Health {
	return &Health{
		Poller: p,
		logger: logger,
	}
}

func (h *Health) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	ch := h.Poller.Subscribe()
	defer h.Poller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			h.lock.Lock()
			h.update = update
			h.updated = true
			h.lock.Unlock()
		}
	}
}

type report struct {
	UpdatedAt           string  `json:"updated_at"`
	ClimateEntity       string  `json:"climate_entity"`
	Mode                string  `json:"mode"`
	Setpoint            float64 `json:"setpoint"`
	ExternalTemperature float64 `json:"external_temperature"`
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if !h.updated {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		h.Poller.Refresh()
		return
	}

	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report{
		UpdatedAt:           h.update.Timestamp.Format(time.RFC3339),
		ClimateEntity:       h.update.Climate.EntityID,
		Mode:                h.update.Climate.Mode,
		Setpoint:            h.update.Climate.Setpoint,
		ExternalTemperature: h.update.ExternalTemperature,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
