package transport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// LibraryName is reported as context.library.name on structured calls.
const LibraryName = "http"

// TimestampLayout is the wire format of every timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Library identifies the sending library.
type Library struct {
	Name string `json:"name"`
}

// Context is the context object of a track call.
type Context struct {
	Library Library `json:"library"`
}

// IdentifyContext is the context object of an identify call.
type IdentifyContext struct {
	Traits  map[string]any `json:"traits"`
	Library Library        `json:"library"`
}

// TrackPayload is the body of POST /v1/track.
type TrackPayload struct {
	UserID     string         `json:"userId,omitempty"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	Traits     map[string]any `json:"traits"`
	Context    Context        `json:"context"`
	Timestamp  string         `json:"timestamp"`
}

// IdentifyPayload is the body of POST /v1/identify.
type IdentifyPayload struct {
	UserID    string          `json:"userId,omitempty"`
	Context   IdentifyContext `json:"context"`
	Timestamp string          `json:"timestamp"`
}

// BeaconData is the caller-supplied part of a beacon body.
// Nil and empty-string values are dropped when encoded.
type BeaconData map[string]any

// Beacon protocol fields.
const (
	FieldAppID     = "appid"
	FieldRec       = "rec"
	FieldAPIV      = "apiv"
	FieldUID       = "uid"
	FieldSendImage = "send_image"
	FieldLang      = "lang"
)

// ReservedBeaconKey reports whether key is a protocol field.
func ReservedBeaconKey(key string) bool {
	switch key {
	case FieldAppID, FieldRec, FieldAPIV, FieldUID, FieldSendImage, FieldLang:
		return true
	}
	return false
}

// DefaultLanguage is sent as Accept-Language when the beacon carries no lang.
const DefaultLanguage = "en"

// EncodeBeacon builds the form body and the Accept-Language value.
// Caller data is merged over the fixed protocol fields. lang is removed from
// the body and returned separately.
func EncodeBeacon(appID, userID string, data BeaconData) (url.Values, string, error) {
	form := url.Values{}
	form.Set(FieldAppID, appID)
	form.Set(FieldRec, "1")
	form.Set(FieldAPIV, "1")
	if userID != "" {
		form.Set(FieldUID, userID)
	}
	form.Set(FieldSendImage, "0")

	lang := DefaultLanguage
	for key, value := range data {
		if key == FieldLang {
			if s, err := formatValue(value); err == nil && s != "" {
				lang = s
			}
			continue
		}
		s, err := formatValue(value)
		if err != nil {
			return nil, "", fmt.Errorf("encode beacon field %s: %w", key, err)
		}
		if s == "" {
			continue
		}
		form.Set(key, s)
	}
	return form, lang, nil
}

func formatValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
