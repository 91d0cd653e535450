package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{in: 7, want: 7},
		{in: int64(512), want: 512},
		{in: 3.0, want: 3},
		{in: 3.5, want: 0},
		{in: "12", want: 0},
		{in: nil, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Int(tt.in), "%#v", tt.in)
	}
}

func TestFloat(t *testing.T) {
	assert.InDelta(t, 0.5, Float(0.5), 1e-9)
	assert.InDelta(t, 2.0, Float(int64(2)), 1e-9)
	assert.InDelta(t, 4.0, Float(4), 1e-9)
	assert.Zero(t, Float("0.5"))
}

func TestString(t *testing.T) {
	assert.Equal(t, "ollama", String("ollama"))
	assert.Empty(t, String(42))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Strings([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "c"}, Strings([]any{"a", 1, "c"}))
	assert.Nil(t, Strings("a"))
}
