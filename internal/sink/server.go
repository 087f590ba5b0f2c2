package sink

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBody caps an accepted request body.
const maxBody = 1 << 20

// Server accepts collector calls and stores them.
type Server struct {
	store    Store
	logger   *slog.Logger
	registry *prometheus.Registry
	received *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the Prometheus registry served on /metrics.
// Default: a new registry.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// NewServer creates a Server backed by store.
func NewServer(store Store, opts ...ServerOption) *Server {
	s := &Server{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	s.received = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kepixel_sink_received_total",
		Help: "Calls accepted by the sink, by kind.",
	}, []string{"kind"})
	s.rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kepixel_sink_rejected_total",
		Help: "Calls rejected by the sink, by kind and reason.",
	}, []string{"kind", "reason"})
	s.registry.MustRegister(s.received, s.rejected)
	return s
}

// Registry returns the registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the HTTP handler, instrumented with OpenTelemetry.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleBeacon)
	mux.HandleFunc("POST /v1/track", s.handleTrack)
	mux.HandleFunc("POST /v1/identify", s.handleIdentify)
	mux.HandleFunc("GET /v1/records", s.handleRecords)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return otelhttp.NewHandler(mux, "kepixel.sink")
}

func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseForm(); err != nil {
		s.reject(w, KindBeacon, "malformed", http.StatusBadRequest, err)
		return
	}
	appID := r.PostForm.Get("appid")
	if appID == "" {
		s.reject(w, KindBeacon, "no_app_id", http.StatusBadRequest, errors.New("appid is required"))
		return
	}

	s.save(w, r, Record{
		Kind:   KindBeacon,
		AppID:  appID,
		UserID: r.PostForm.Get("uid"),
		Event:  beaconLabel(r.PostForm),
		Body:   []byte(r.PostForm.Encode()),
	})
}

// beaconLabel names a beacon after the first marker field it carries.
func beaconLabel(form map[string][]string) string {
	for _, key := range []string{"ping", "ecommerce_order", "ecommerce_cart_update", "idgoal", "search", "link", "action_name"} {
		if _, ok := form[key]; ok {
			return key
		}
	}
	return ""
}

type structuredBody struct {
	UserID string `json:"userId"`
	Event  string `json:"event"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	s.handleStructured(w, r, KindTrack)
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	s.handleStructured(w, r, KindIdentify)
}

func (s *Server) handleStructured(w http.ResponseWriter, r *http.Request, kind string) {
	appID, err := bearerAppID(r.Header.Get("Authorization"))
	if err != nil {
		s.reject(w, kind, "unauthorized", http.StatusUnauthorized, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.reject(w, kind, "malformed", http.StatusBadRequest, err)
		return
	}
	var parsed structuredBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		s.reject(w, kind, "malformed", http.StatusBadRequest, err)
		return
	}
	if kind == KindTrack && parsed.Event == "" {
		s.reject(w, kind, "no_event", http.StatusBadRequest, errors.New("event is required"))
		return
	}

	s.save(w, r, Record{
		Kind:   kind,
		AppID:  appID,
		UserID: parsed.UserID,
		Event:  parsed.Event,
		Body:   body,
	})
}

// bearerAppID decodes the app identifier from a bearer credential.
func bearerAppID(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errors.New("bearer credential is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil || len(decoded) == 0 {
		return "", errors.New("bearer credential is not a base64 app id")
	}
	return string(decoded), nil
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, rec Record) {
	saved, err := s.store.Save(r.Context(), rec)
	if err != nil {
		s.reject(w, rec.Kind, "store", http.StatusInternalServerError, err)
		return
	}
	s.received.WithLabelValues(rec.Kind).Inc()
	if s.logger != nil {
		s.logger.Debug("sink received call",
			slog.String("kind", saved.Kind),
			slog.String("app_id", saved.AppID),
			slog.String("event", saved.Event),
			slog.String("id", saved.ID),
		)
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": saved.ID})
}

func (s *Server) reject(w http.ResponseWriter, kind, reason string, status int, err error) {
	s.rejected.WithLabelValues(kind, reason).Inc()
	if s.logger != nil {
		s.logger.Warn("sink rejected call",
			slog.String("kind", kind),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
	http.Error(w, err.Error(), status)
}

// recordView is the JSON form of a Record.
type recordView struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	AppID    string          `json:"app_id"`
	UserID   string          `json:"user_id,omitempty"`
	Event    string          `json:"event,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
	Form     string          `json:"form,omitempty"`
	Received string          `json:"received"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Kind: q.Get("kind"), AppID: q.Get("app_id")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	records, err := s.store.List(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		v := recordView{
			ID:       rec.ID,
			Kind:     rec.Kind,
			AppID:    rec.AppID,
			UserID:   rec.UserID,
			Event:    rec.Event,
			Received: rec.Received.UTC().Format("2006-01-02T15:04:05.000Z"),
		}
		if rec.Kind == KindBeacon {
			v.Form = string(rec.Body)
		} else {
			v.Body = rec.Body
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
