package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clambin/splitmon/internal/poller"
	"github.com/stretchr/testify/assert"
)

type fakePoller struct {
	ch        chan poller.Update
	refreshed atomic.Int32
}

func (f *fakePoller) Subscribe() chan poller.Update    { return f.ch }
func (f *fakePoller) Unsubscribe(_ chan poller.Update) {}
func (f *fakePoller) Refresh()                         { f.refreshed.Add(1) }

func TestHealth_Handle(t *testing.T) {
	p := &fakePoller{ch: make(chan poller.Update)}
	h := New(p, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	// before the first update: unavailable, and a refresh is requested
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, &http.Request{})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, int32(1), p.refreshed.Load())

	p.ch <- poller.Update{
		Climate:             poller.Climate{EntityID: "climate.living_room", Mode: "cool", Setpoint: 70},
		ExternalTemperature: 73,
		Timestamp:           time.Now(),
	}

	assert.Eventually(t, func() bool {
		resp = httptest.NewRecorder()
		h.ServeHTTP(resp, &http.Request{})
		return resp.Code == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), `"climate_entity": "climate.living_room"`)
}
