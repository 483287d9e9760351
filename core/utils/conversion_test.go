package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"int", 3, 3, true},
		{"float64", 6.0, 6, true},
		{"json number", json.Number("12"), 12, true},
		{"string", " 7 ", 7, true},
		{"bad string", "seven", 0, false},
		{"nil", nil, 0, false},
		{"map", map[string]any{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat("1.5")
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = ToFloat(true)
	assert.False(t, ok)
}

func TestToString(t *testing.T) {
	assert.Equal(t, "1102", ToString(float64(1102)))
	assert.Equal(t, "1.25", ToString(1.25))
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "42", ToString(json.Number("42")))
	assert.Equal(t, "7", ToString(7))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool("true"))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}
