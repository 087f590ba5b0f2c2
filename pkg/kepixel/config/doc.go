/*
Package config loads tracker settings from YAML or JSON files, the
environment, and file changes at runtime.

# Settings

Settings mirrors the runtime-settable configuration surface of the tracker:

	app_id: "my-app"
	user_id: ""
	log: true
	endpoint: "https://edge.kepixel.com"
	timeout: 10s
	heartbeat:
	  enabled: true
	  active_time: 15s   # or a number of seconds
	link_tracking:
	  enabled: true
	  track_content: false

Load it with FromFile, FromYAML or FromJSON. Missing keys keep the values
from Defaults.

# Environment

ApplyEnv overrides file values with KEPIXEL_APP_ID, KEPIXEL_USER_ID,
KEPIXEL_ENDPOINT and KEPIXEL_LOG.

# Loose values

Values wraps a map[string]any with typed accessors that fall back to a
default on a missing key or a type mismatch:

	v := config.NewValues(map[string]any{"timeout": "30s"})
	timeout := v.Duration("timeout", 10*time.Second) // 30s

# Hot reload

Watcher watches the settings file and calls back with freshly loaded
Settings after a debounce period.
*/
package config
