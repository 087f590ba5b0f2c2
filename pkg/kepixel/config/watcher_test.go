package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kepixel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_id: first\n"), 0o600))

	reloaded := make(chan Settings, 4)
	w, err := NewWatcher(path, func(s Settings) { reloaded <- s }, nil, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx), "second start is a no-op")
	assert.True(t, w.IsRunning())

	require.NoError(t, os.WriteFile(path, []byte("app_id: second\nlog: true\n"), 0o600))

	select {
	case s := <-reloaded:
		assert.Equal(t, "second", s.AppID)
		assert.True(t, s.Log)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kepixel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_id: a\n"), 0o600))

	reloaded := make(chan Settings, 1)
	w, err := NewWatcher(path, func(s Settings) { reloaded <- s }, nil, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}
}
