package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
)

// Default values.
const (
	DefaultEndpoint   = "https://edge.kepixel.com"
	DefaultTimeout    = 10 * time.Second
	DefaultActiveTime = 15 * time.Second
)

// Environment variable names read by ApplyEnv.
const (
	EnvAppID    = "KEPIXEL_APP_ID"
	EnvUserID   = "KEPIXEL_USER_ID"
	EnvEndpoint = "KEPIXEL_ENDPOINT"
	EnvLog      = "KEPIXEL_LOG"
)

// HeartbeatSettings configures the heartbeat timer.
type HeartbeatSettings struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	ActiveTime time.Duration `yaml:"active_time" json:"active_time"`
}

// LinkTrackingSettings configures automatic link tracking.
type LinkTrackingSettings struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	TrackContent bool `yaml:"track_content" json:"track_content"`
}

// Settings is the tracker configuration.
type Settings struct {
	AppID        string               `yaml:"app_id" json:"app_id"`
	UserID       string               `yaml:"user_id" json:"user_id"`
	Log          bool                 `yaml:"log" json:"log"`
	Endpoint     string               `yaml:"endpoint" json:"endpoint"`
	Timeout      time.Duration        `yaml:"timeout" json:"timeout"`
	Heartbeat    HeartbeatSettings    `yaml:"heartbeat" json:"heartbeat"`
	LinkTracking LinkTrackingSettings `yaml:"link_tracking" json:"link_tracking"`
}

// Defaults returns the default settings. AppID is left empty.
func Defaults() Settings {
	return Settings{
		Endpoint: DefaultEndpoint,
		Timeout:  DefaultTimeout,
		Heartbeat: HeartbeatSettings{
			ActiveTime: DefaultActiveTime,
		},
	}
}

// Validate returns ErrAppIDRequired if AppID is empty.
func (s Settings) Validate() error {
	if s.AppID == "" {
		return kperrors.ErrAppIDRequired
	}
	return nil
}

// FromValues builds Settings from loose values over Defaults.
func FromValues(v Values) Settings {
	s := Defaults()
	s.AppID = v.String("app_id", s.AppID)
	s.UserID = v.String("user_id", s.UserID)
	s.Log = v.Bool("log", s.Log)
	s.Endpoint = v.String("endpoint", s.Endpoint)
	s.Timeout = v.Duration("timeout", s.Timeout)

	hb := v.Sub("heartbeat")
	s.Heartbeat.Enabled = hb.Bool("enabled", s.Heartbeat.Enabled)
	s.Heartbeat.ActiveTime = hb.Duration("active_time", s.Heartbeat.ActiveTime)

	lt := v.Sub("link_tracking")
	s.LinkTracking.Enabled = lt.Bool("enabled", s.LinkTracking.Enabled)
	s.LinkTracking.TrackContent = lt.Bool("track_content", s.LinkTracking.TrackContent)
	return s
}

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings.
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return FromValues(NewValues(m)), nil
}

// FromJSON parses JSON data into Settings.
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return FromValues(NewValues(m)), nil
}

// ApplyEnv returns s with environment overrides applied.
// An unparsable KEPIXEL_LOG is an error.
func (s Settings) ApplyEnv() (Settings, error) {
	if v, ok := os.LookupEnv(EnvAppID); ok && v != "" {
		s.AppID = v
	}
	if v, ok := os.LookupEnv(EnvUserID); ok && v != "" {
		s.UserID = v
	}
	if v, ok := os.LookupEnv(EnvEndpoint); ok && v != "" {
		s.Endpoint = v
	}
	if v, ok := os.LookupEnv(EnvLog); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("parse %s: %w", EnvLog, err)
		}
		s.Log = on
	}
	return s, nil
}
