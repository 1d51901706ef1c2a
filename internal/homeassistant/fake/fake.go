// Package fake implements enough of Home Assistant's REST API to test against.
package fake

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed,omitempty"`
}

type ServiceCall struct {
	Domain  string
	Service string
	Payload map[string]any
}

// Server is an in-memory Home Assistant: a state store keyed by entity id, and a
// recorder for incoming service calls. climate.set_temperature calls update the
// target entity's temperature attribute, like the real thing.
type Server struct {
	Token    string
	entities map[string]Entity
	calls    []ServiceCall
	lock     sync.Mutex
}

func New(token string) *Server {
	return &Server{
		Token:    token,
		entities: make(map[string]Entity),
	}
}

func (s *Server) SetState(entity Entity) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entities[entity.EntityID] = entity
}

func (s *Server) Calls() []ServiceCall {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]ServiceCall{}, s.calls...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/states/"):
		s.getState(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/services/"):
		s.callService(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	entity, ok := s.entities[strings.TrimPrefix(r.URL.Path, "/api/states/")]
	if !ok {
		http.Error(w, "entity not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entity)
}

func (s *Server) callService(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/services/"), "/")
	if len(parts) != 2 || r.Method != http.MethodPost {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls = append(s.calls, ServiceCall{Domain: parts[0], Service: parts[1], Payload: payload})

	if parts[0] == "climate" && parts[1] == "set_temperature" {
		entityID, _ := payload["entity_id"].(string)
		if entity, ok := s.entities[entityID]; ok {
			entity.Attributes["temperature"] = payload["temperature"]
			s.entities[entityID] = entity
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("[]"))
}
