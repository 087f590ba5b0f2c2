package sink_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kepixel/kepixel-go/internal/sink"
	"github.com/kepixel/kepixel-go/pkg/kepixel"
	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
)

func newSink(t *testing.T) (*sink.Server, sink.Store, *httptest.Server) {
	t.Helper()
	store := sink.NewMemoryStore()
	srv := sink.NewServer(store)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, store, hs
}

func post(t *testing.T, target, contentType, auth, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_Beacon(t *testing.T) {
	_, store, hs := newSink(t)

	form := url.Values{"appid": {"app-1"}, "rec": {"1"}, "uid": {"u1"}, "ping": {"1"}}
	resp := post(t, hs.URL+"/", "application/x-www-form-urlencoded", "", form.Encode())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, hs.URL+"/", "application/x-www-form-urlencoded", "", "rec=1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	records, err := store.List(context.Background(), sink.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sink.KindBeacon, records[0].Kind)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, "ping", records[0].Event)
}

func TestServer_Structured(t *testing.T) {
	srv, store, hs := newSink(t)

	resp := post(t, hs.URL+"/v1/track", "application/json", "", `{"event":"Login"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, hs.URL+"/v1/track", "application/json", "Bearer !!", `{"event":"Login"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, hs.URL+"/v1/track", "application/json", "Bearer YXBwLTE=", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, hs.URL+"/v1/track", "application/json", "Bearer YXBwLTE=", `{"userId":"u1","event":"Login"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, hs.URL+"/v1/identify", "application/json", "Bearer YXBwLTE=", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	records, err := store.List(context.Background(), sink.Filter{AppID: "app-1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Login", records[0].Event)
	assert.Equal(t, sink.KindIdentify, records[1].Kind)

	series, err := testutil.GatherAndCount(srv.Registry(), "kepixel_sink_received_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)

	rejected, err := testutil.GatherAndCount(srv.Registry(), "kepixel_sink_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 2, rejected)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	_, _, hs := newSink(t)

	resp, err := http.Get(hs.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, hs.URL+"/", "application/x-www-form-urlencoded", "", "appid=a&search=x")

	metrics, err := http.Get(hs.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kepixel_sink_received_total{kind="beacon"} 1`)
}

func TestServer_WithTracker(t *testing.T) {
	_, _, hs := newSink(t)

	tr, err := kepixel.New("app-1", kepixel.WithEndpoint(hs.URL))
	require.NoError(t, err)

	call := tr.TrackPurchase(event.Purchase{
		Base:     event.Base{UserData: &event.UserData{Email: "u@x.com"}},
		Value:    59.98,
		Currency: "USD",
		OrderID:  "o1",
		Items:    []event.Item{event.NewItem("p1", "T", 29.99, 2)},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := call.Wait(ctx)
	require.NoError(t, err)
	require.True(t, outcome.OK(), "%v", outcome.Err)

	search, err := tr.TrackSiteSearch(kepixel.SiteSearch{Keyword: "boots"})
	require.NoError(t, err)
	_, err = search.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Close(ctx))

	resp, err := http.Get(hs.URL + "/v1/records?app_id=app-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var records []struct {
		Kind   string         `json:"kind"`
		UserID string         `json:"user_id"`
		Event  string         `json:"event"`
		Body   map[string]any `json:"body"`
		Form   string         `json:"form"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 4)

	assert.Equal(t, sink.KindIdentify, records[0].Kind)
	assert.Equal(t, "u@x.com", records[0].UserID)
	assert.Equal(t, sink.KindTrack, records[1].Kind)
	assert.Equal(t, "Order Completed", records[1].Event)
	assert.Equal(t, "USD", records[1].Body["properties"].(map[string]any)["currency"])
	assert.Equal(t, sink.KindBeacon, records[3].Kind)
	assert.Equal(t, "search", records[3].Event)
	assert.Contains(t, records[3].Form, "search=boots")

	bad, err := http.Get(hs.URL + "/v1/records?limit=-1")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}
