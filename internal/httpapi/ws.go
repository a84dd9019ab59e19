package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/sysmon/internal/presenter"
)

const statusWriteTimeout = 5 * time.Second

var statusUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

type statusSnapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Systems     []presenter.Entry `json:"systems"`
}

func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Debug("status_ws_upgrade_error", zap.Error(err))
		return
	}
	s.serveStatusConnection(conn)
}

// serveStatusConnection pushes the status view on connect and then on every
// push interval until the peer goes away.
func (s *Server) serveStatusConnection(conn *websocket.Conn) {
	defer conn.Close()

	if err := writeStatusPayload(conn, s.snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(s.opts.PushInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			if err := writeStatusPayload(conn, s.snapshot()); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) snapshot() statusSnapshot {
	return statusSnapshot{GeneratedAt: time.Now().UTC(), Systems: s.view()}
}

func writeStatusPayload(conn *websocket.Conn, payload statusSnapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(statusWriteTimeout))
	return conn.WriteJSON(payload)
}
