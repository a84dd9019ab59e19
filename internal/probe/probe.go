package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
)

// Request is one probe's input: where to look and how long to wait.
type Request struct {
	Host     string
	Warning  time.Duration
	Timeout  time.Duration
	JSONPath string
}

// RequestFor builds the probe request for a configured system.
func RequestFor(sc domain.SystemConfig) Request {
	return Request{
		Host:     sc.Host,
		Warning:  sc.Warning,
		Timeout:  sc.Timeout,
		JSONPath: sc.JSONPath,
	}
}

// Outcome is a classified probe result. Healthy is false for DOWN and
// UNKNOWN; a WARNING is degraded but healthy.
type Outcome struct {
	Healthy    bool
	Status     domain.StatusKind
	Message    string
	LatencyMS  float64
	StatusCode int // 0 when the check has no status code or never got a response
}

// Checker runs one kind of health check. Implementations classify every
// failure into an Outcome; they never return errors.
type Checker interface {
	Check(ctx context.Context, req Request) Outcome
}

// Registry maps check tags to checkers. Unregistered tags resolve to the
// fallback. Register everything before handing the registry to callers.
type Registry struct {
	checkers map[string]Checker
	fallback Checker
}

func NewRegistry(fallback Checker) *Registry {
	return &Registry{
		checkers: map[string]Checker{domain.DefaultCheck: fallback},
		fallback: fallback,
	}
}

func (r *Registry) Register(tag string, c Checker) {
	r.checkers[tag] = c
}

func (r *Registry) Lookup(tag string) Checker {
	if c, ok := r.checkers[tag]; ok {
		return c
	}
	return r.fallback
}

// Tags lists registered tags in no particular order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.checkers))
	for t := range r.checkers {
		tags = append(tags, t)
	}
	return tags
}

// DefaultRegistry wires every built-in check under its tag, with the HTTP
// check as the default.
func DefaultRegistry() *Registry {
	h := NewHTTPChecker()
	r := NewRegistry(h)
	r.Register("http", h)
	r.Register("json", NewJSONChecker(h))
	r.Register("tcp", NewTCPChecker())
	r.Register("dns", NewDNSChecker())
	r.Register("icmp", NewICMPChecker())
	return r
}

// TargetURL prefixes http:// onto hosts that don't already carry a scheme.
func TargetURL(host string) string {
	if strings.HasPrefix(host, "http") {
		return host
	}
	return "http://" + host
}

// hostOnly strips any scheme, path and port from host.
func hostOnly(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		return h
	}
	return raw
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// millis converts d to milliseconds rounded to two decimals.
func millis(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000*100) / 100
}

func formatMS(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

// classify turns a completed exchange into an outcome. label is what goes
// into the UP/ERR message, usually the status code.
func classify(ok bool, label string, elapsed, warning time.Duration) Outcome {
	lat := millis(elapsed)
	if !ok {
		return Outcome{Status: domain.StatusDown, Message: fmt.Sprintf("ERR (%s)", label), LatencyMS: lat}
	}
	if lat > millis(warning) {
		return Outcome{Healthy: true, Status: domain.StatusWarning, Message: fmt.Sprintf("SLOW (%sms)", formatMS(lat)), LatencyMS: lat}
	}
	return Outcome{Healthy: true, Status: domain.StatusUp, Message: fmt.Sprintf("UP (%s)", label), LatencyMS: lat}
}

func classifyStatus(code int, elapsed, warning time.Duration) Outcome {
	out := classify(code >= 200 && code < 400, strconv.Itoa(code), elapsed, warning)
	out.StatusCode = code
	return out
}

func timedOut() Outcome {
	return Outcome{Status: domain.StatusUnknown, Message: "TIMEOUT"}
}

func connectionError() Outcome {
	return Outcome{Status: domain.StatusDown, Message: "Connection Error"}
}
