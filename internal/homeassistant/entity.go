package homeassistant

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrNotFound indicates the entity is not registered with Home Assistant.
	ErrNotFound = errors.New("entity not found")
	// ErrUnavailable indicates the entity exists but currently has no value.
	ErrUnavailable = errors.New("entity unavailable")
	// ErrInvalid indicates the entity has a value, but not one we can use.
	ErrInvalid = errors.New("invalid value")
)

// An Entity is the state of a single Home Assistant entity, as returned by /api/states/<entity_id>.
type Entity struct {
	ID          string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
}

// Float returns the entity's state as a number. It distinguishes between an entity
// that has no value (ErrUnavailable) and one whose value isn't numeric (ErrInvalid).
func (e Entity) Float() (float64, error) {
	switch e.State {
	case "", "unavailable", "unknown":
		return 0, fmt.Errorf("%s: %w", e.ID, ErrUnavailable)
	}
	value, err := strconv.ParseFloat(e.State, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q: %w", e.ID, e.State, ErrInvalid)
	}
	return value, nil
}

// On returns the entity's state as a boolean ("on"/"off").
func (e Entity) On() (bool, error) {
	switch e.State {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "unavailable", "unknown":
		return false, fmt.Errorf("%s: %w", e.ID, ErrUnavailable)
	default:
		return false, fmt.Errorf("%s: %q: %w", e.ID, e.State, ErrInvalid)
	}
}

// FloatAttribute returns a numeric attribute of the entity.
func (e Entity) FloatAttribute(name string) (float64, error) {
	attribute, ok := e.Attributes[name]
	if !ok || attribute == nil {
		return 0, fmt.Errorf("%s[%s]: %w", e.ID, name, ErrUnavailable)
	}
	switch value := attribute.(type) {
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("%s[%s]: %q: %w", e.ID, name, value, ErrInvalid)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%s[%s]: %w", e.ID, name, ErrInvalid)
	}
}

// StringAttribute returns a string attribute of the entity.
func (e Entity) StringAttribute(name string) (string, error) {
	attribute, ok := e.Attributes[name]
	if !ok || attribute == nil {
		return "", fmt.Errorf("%s[%s]: %w", e.ID, name, ErrUnavailable)
	}
	value, ok := attribute.(string)
	if !ok {
		return "", fmt.Errorf("%s[%s]: %w", e.ID, name, ErrInvalid)
	}
	return value, nil
}
