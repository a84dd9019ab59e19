package probe

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"
)

// TCPChecker only checks that a connection can be opened.
type TCPChecker struct {
	Dialer *net.Dialer
	now    func() time.Time
}

func NewTCPChecker() *TCPChecker {
	return &TCPChecker{Dialer: &net.Dialer{}, now: time.Now}
}

func (t *TCPChecker) Check(ctx context.Context, req Request) Outcome {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	start := t.now()
	conn, err := t.Dialer.DialContext(ctx, "tcp", dialAddr(req.Host))
	elapsed := t.now().Sub(start)
	if err != nil {
		if isTimeout(ctx, err) {
			return timedOut()
		}
		return connectionError()
	}
	conn.Close()
	return classify(true, "open", elapsed, req.Warning)
}

// dialAddr turns host, host:port or a URL into host:port. Without an explicit
// port the scheme decides, defaulting to 80.
func dialAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	port := "80"
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			if u.Scheme == "https" {
				port = "443"
			}
			raw = u.Host
		}
	}
	if _, _, err := net.SplitHostPort(raw); err == nil {
		return raw
	}
	return net.JoinHostPort(strings.Trim(raw, "[]"), port)
}
