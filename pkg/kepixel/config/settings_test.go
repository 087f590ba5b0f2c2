package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
)

const sampleYAML = `
app_id: my-app
log: true
timeout: 3s
heartbeat:
  enabled: true
  active_time: 30
link_tracking:
  enabled: true
  track_content: true
`

func TestFromYAML(t *testing.T) {
	s, err := FromYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "my-app", s.AppID)
	assert.True(t, s.Log)
	assert.Equal(t, DefaultEndpoint, s.Endpoint)
	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.Equal(t, HeartbeatSettings{Enabled: true, ActiveTime: 30 * time.Second}, s.Heartbeat)
	assert.Equal(t, LinkTrackingSettings{Enabled: true, TrackContent: true}, s.LinkTracking)
	assert.NoError(t, s.Validate())
}

func TestFromJSON(t *testing.T) {
	s, err := FromJSON([]byte(`{"app_id":"a","endpoint":"http://localhost:8080","heartbeat":{"active_time":"1m"}}`))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", s.Endpoint)
	assert.Equal(t, time.Minute, s.Heartbeat.ActiveTime)
	assert.False(t, s.Heartbeat.Enabled)
	assert.Equal(t, DefaultTimeout, s.Timeout)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "kepixel.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))
	s, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "my-app", s.AppID)

	txtPath := filepath.Join(dir, "kepixel.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = FromFile(txtPath)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = FromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.ErrorIs(t, s.Validate(), kperrors.ErrAppIDRequired)
	assert.Equal(t, DefaultActiveTime, s.Heartbeat.ActiveTime)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAppID, "env-app")
	t.Setenv(EnvUserID, "env-user")
	t.Setenv(EnvEndpoint, "http://collector")
	t.Setenv(EnvLog, "true")

	s, err := Defaults().ApplyEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-app", s.AppID)
	assert.Equal(t, "env-user", s.UserID)
	assert.Equal(t, "http://collector", s.Endpoint)
	assert.True(t, s.Log)

	t.Setenv(EnvLog, "maybe")
	_, err = Defaults().ApplyEnv()
	assert.ErrorContains(t, err, EnvLog)
}
