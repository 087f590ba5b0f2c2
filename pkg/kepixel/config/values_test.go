package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValues_Accessors(t *testing.T) {
	v := NewValues(map[string]any{
		"name":     "app",
		"timeout":  "30s",
		"secs":     5,
		"fraction": 1.5,
		"on":       true,
		"nested":   map[string]any{"enabled": true},
	})

	assert.Equal(t, "app", v.String("name", "x"))
	assert.Equal(t, "x", v.String("on", "x"))
	assert.Equal(t, 30*time.Second, v.Duration("timeout", 0))
	assert.Equal(t, 5*time.Second, v.Duration("secs", 0))
	assert.Equal(t, 1500*time.Millisecond, v.Duration("fraction", 0))
	assert.Equal(t, time.Minute, v.Duration("name", time.Minute))
	assert.True(t, v.Bool("on", false))
	assert.True(t, v.Bool("missing", true))
	assert.True(t, v.Sub("nested").Bool("enabled", false))
	assert.False(t, v.Sub("name").Has("enabled"))
	assert.True(t, v.Has("secs"))
	assert.Len(t, v.Raw(), 6)
}

func TestNewValues_Nil(t *testing.T) {
	v := NewValues(nil)
	assert.NotNil(t, v.Raw())
	assert.Equal(t, "d", v.String("k", "d"))
}
