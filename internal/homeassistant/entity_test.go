package homeassistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_Float(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  float64
		err   error
	}{
		{name: "valid", state: "72.5", want: 72.5},
		{name: "integer", state: "72", want: 72},
		{name: "unavailable", state: "unavailable", err: ErrUnavailable},
		{name: "unknown", state: "unknown", err: ErrUnavailable},
		{name: "empty", state: "", err: ErrUnavailable},
		{name: "not a number", state: "on", err: ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Entity{ID: "sensor.temp", State: tt.state}.Float()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestEntity_On(t *testing.T) {
	on, err := Entity{ID: "input_boolean.heat", State: "on"}.On()
	require.NoError(t, err)
	assert.True(t, on)

	on, err = Entity{ID: "input_boolean.heat", State: "off"}.On()
	require.NoError(t, err)
	assert.False(t, on)

	_, err = Entity{ID: "input_boolean.heat", State: "unavailable"}.On()
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Entity{ID: "input_boolean.heat", State: "maybe"}.On()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestEntity_Attributes(t *testing.T) {
	entity := Entity{
		ID:    "climate.minisplit",
		State: "heat",
		Attributes: map[string]any{
			"temperature": 70.0,
			"min_temp":    55.0,
			"max_temp":    "82",
			"hvac_action": "heating",
			"bad":         []string{},
		},
	}

	value, err := entity.FloatAttribute("temperature")
	require.NoError(t, err)
	assert.Equal(t, 70.0, value)

	value, err = entity.FloatAttribute("max_temp")
	require.NoError(t, err)
	assert.Equal(t, 82.0, value)

	_, err = entity.FloatAttribute("missing")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = entity.FloatAttribute("bad")
	assert.ErrorIs(t, err, ErrInvalid)

	mode, err := entity.StringAttribute("hvac_action")
	require.NoError(t, err)
	assert.Equal(t, "heating", mode)

	_, err = entity.StringAttribute("temperature")
	assert.ErrorIs(t, err, ErrInvalid)
}
