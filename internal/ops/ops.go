// Package ops exposes the controller's operator commands over HTTP, next to the
// health endpoint.
package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Commander is implemented by the controller. Commands are queued and picked up by
// the controller's Run loop, so a 202 means accepted, not executed.
type Commander interface {
	ForceAdjustment()
	SetAutomation(enabled bool)
	ClearOverride()
	ForceReset()
}

type Server struct {
	commander Commander
	logger    *slog.Logger
}

func New(commander Commander, logger *slog.Logger) *Server {
	return &Server{commander: commander, logger: logger}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/force_adjustment", s.forceAdjustment)
	mux.HandleFunc("POST /api/toggle_automation", s.toggleAutomation)
	mux.HandleFunc("POST /api/clear_override", s.clearOverride)
	mux.HandleFunc("POST /api/force_reset", s.forceReset)
}

func (s *Server) forceAdjustment(w http.ResponseWriter, _ *http.Request) {
	s.logger.Info("force adjustment requested")
	s.commander.ForceAdjustment()
	accepted(w)
}

func (s *Server) toggleAutomation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		http.Error(w, "invalid request: expected {\"enabled\": true|false}", http.StatusBadRequest)
		return
	}
	s.logger.Info("automation toggle requested", slog.Bool("enabled", *body.Enabled))
	s.commander.SetAutomation(*body.Enabled)
	accepted(w)
}

func (s *Server) clearOverride(w http.ResponseWriter, _ *http.Request) {
	s.logger.Info("clear override requested")
	s.commander.ClearOverride()
	accepted(w)
}

func (s *Server) forceReset(w http.ResponseWriter, _ *http.Request) {
	s.logger.Info("force reset requested")
	s.commander.ForceReset()
	accepted(w)
}

func accepted(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"result": "accepted"})
}
