// Package homeassistant implements the subset of Home Assistant's REST API that
// splitmon needs: reading entity states, calling services and writing logbook entries.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client talks to one Home Assistant instance, authenticating with a long-lived access token.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	token      string
}

func New(url, token string, registry prometheus.Registerer) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Transport: instrumentedRoundTripper(http.DefaultTransport, registry),
		},
		baseURL: strings.TrimSuffix(url, "/"),
		token:   token,
	}
}

func instrumentedRoundTripper(rt http.RoundTripper, registry prometheus.Registerer) http.RoundTripper {
	requestCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "splitmon",
		Subsystem: "homeassistant",
		Name:      "api_errors_total",
		Help:      "number of failed Home Assistant API calls",
	}, []string{"code", "method"})
	requestDuration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "splitmon",
		Subsystem: "homeassistant",
		Name:      "api_latency",
		Help:      "latency of Home Assistant API calls",
	}, []string{"code", "method"})
	if registry != nil {
		registry.MustRegister(requestCounter, requestDuration)
	}
	return promhttp.InstrumentRoundTripperCounter(requestCounter,
		promhttp.InstrumentRoundTripperDuration(requestDuration, rt),
	)
}

// GetState returns the current state of the entity. It returns ErrNotFound if the
// entity is not registered with Home Assistant.
func (c *Client) GetState(ctx context.Context, entityID string) (Entity, error) {
	var entity Entity
	resp, err := c.call(ctx, http.MethodGet, "/api/states/"+entityID, nil)
	if err != nil {
		return entity, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		err = json.NewDecoder(resp.Body).Decode(&entity)
	case http.StatusNotFound:
		err = fmt.Errorf("%s: %w", entityID, ErrNotFound)
	default:
		err = fmt.Errorf("get state %s: %s", entityID, resp.Status)
	}
	return entity, err
}

// CallService calls a Home Assistant service and waits for it to complete.
func (c *Client) CallService(ctx context.Context, domain, service string, payload map[string]any) error {
	resp, err := c.call(ctx, http.MethodPost, "/api/services/"+domain+"/"+service, payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("call service %s.%s: %s: %s", domain, service, resp.Status, string(body))
	}
	return nil
}

// LogEntry writes an entry to the Home Assistant logbook.
func (c *Client) LogEntry(ctx context.Context, name, message, entityID string) error {
	return c.CallService(ctx, "logbook", "log", map[string]any{
		"name":      name,
		"message":   message,
		"entity_id": entityID,
	})
}

func (c *Client) call(ctx context.Context, method, path string, payload map[string]any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.HTTPClient.Do(req)
}
