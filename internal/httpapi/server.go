package httpapi

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/sysmon/internal/httpapi/middleware"
	"github.com/hamed0406/sysmon/internal/presenter"
	"github.com/hamed0406/sysmon/internal/repo"
	"github.com/hamed0406/sysmon/internal/scheduler"
)

// Triggerer runs on-demand probes and waits for them.
type Triggerer interface {
	Trigger(ctx context.Context, target string, mode scheduler.Mode) int
}

type Options struct {
	PushInterval time.Duration // websocket push cadence
	TriggerRPM   int           // per client IP, 0 disables limiting
	TriggerBurst int
}

type Server struct {
	Logger  *zap.Logger
	Systems repo.GenerationSource
	Trigger Triggerer
	opts    Options
}

func NewServer(l *zap.Logger, systems repo.GenerationSource, trig Triggerer, opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = 5 * time.Second
	}
	return &Server{Logger: l, Systems: systems, Trigger: trig, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/", s.handleStatus)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/status/ws", s.handleStatusWS)

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(s.opts.TriggerRPM, s.opts.TriggerBurst))
		r.Get("/check/now", s.handleCheckNow)
		r.Post("/check/now", s.handleCheckNow)
	})

	return r
}

func (s *Server) view() []presenter.Entry {
	return presenter.Build(s.Systems.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

type triggerResponse struct {
	Target     string `json:"target"`
	Type       string `json:"type"`
	Dispatched int    `json:"dispatched"`
}

// handleCheckNow probes the selected systems and only answers once they have
// all been recorded. Browsers are sent back to the status view; JSON clients
// get the dispatch count.
func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := strings.TrimSpace(q.Get("target"))

	n := 0
	mode, ok := scheduler.ParseMode(strings.TrimSpace(q.Get("type")))
	if ok {
		// a client hanging up must not abort probes whose results others will read
		n = s.Trigger.Trigger(context.WithoutCancel(r.Context()), target, mode)
	}

	s.Logger.Info("check_now",
		zap.String("target", target),
		zap.String("type", string(mode)),
		zap.Bool("known_type", ok),
		zap.Int("dispatched", n),
	)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, triggerResponse{Target: target, Type: string(mode), Dispatched: n})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
