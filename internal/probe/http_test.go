package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := NewHTTPChecker().Check(context.Background(), Request{Host: s.URL, Warning: 30 * time.Second, Timeout: 2 * time.Second})
	if !out.Healthy || out.Status != domain.StatusUp || out.Message != "UP (200)" {
		t.Fatalf("want UP (200), got %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if out.LatencyMS < 0 {
		t.Fatalf("latency should be >= 0, got %f", out.LatencyMS)
	}
}

func TestHTTPChecker_PrefixesScheme(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	host := strings.TrimPrefix(s.URL, "http://")
	out := NewHTTPChecker().Check(context.Background(), Request{Host: host, Warning: 30 * time.Second, Timeout: 2 * time.Second})
	if out.Message != "UP (204)" {
		t.Fatalf("want UP (204), got %+v", out)
	}
}

func TestHTTPChecker_Status503(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer s.Close()

	out := NewHTTPChecker().Check(context.Background(), Request{Host: s.URL, Warning: 30 * time.Second, Timeout: 2 * time.Second})
	if out.Healthy || out.Status != domain.StatusDown || out.Message != "ERR (503)" {
		t.Fatalf("want DOWN ERR (503), got %+v", out)
	}
	if out.StatusCode != 503 {
		t.Fatalf("want status 503, got %d", out.StatusCode)
	}
}

func TestHTTPChecker_DoesNotFollowRedirects(t *testing.T) {
	var hits atomic.Int32
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer s.Close()

	out := NewHTTPChecker().Check(context.Background(), Request{Host: s.URL, Warning: 30 * time.Second, Timeout: 2 * time.Second})
	if out.Message != "UP (302)" || hits.Load() != 1 {
		t.Fatalf("want a single UP (302), got %+v after %d hits", out, hits.Load())
	}
}

func TestHTTPChecker_SlowIsWarning(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker()
	chk.now = stepClock(0, 35*time.Second)
	out := chk.Check(context.Background(), Request{Host: s.URL, Warning: 30 * time.Second, Timeout: 2 * time.Second})
	want := Outcome{Healthy: true, Status: domain.StatusWarning, Message: "SLOW (35000ms)", LatencyMS: 35000, StatusCode: 200}
	if out != want {
		t.Fatalf("got %+v, want %+v", out, want)
	}
}

func TestHTTPChecker_TimeoutIsUnknown(t *testing.T) {
	release := make(chan struct{})
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(200)
	}))
	defer s.Close()
	defer close(release)

	out := NewHTTPChecker().Check(context.Background(), Request{Host: s.URL, Warning: 30 * time.Second, Timeout: 50 * time.Millisecond})
	want := Outcome{Status: domain.StatusUnknown, Message: "TIMEOUT"}
	if out != want {
		t.Fatalf("got %+v, want %+v", out, want)
	}
}

func TestHTTPChecker_RefusedIsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out := NewHTTPChecker().Check(context.Background(), Request{Host: addr, Warning: 30 * time.Second, Timeout: 2 * time.Second})
	want := Outcome{Status: domain.StatusDown, Message: "Connection Error"}
	if out != want {
		t.Fatalf("got %+v, want %+v", out, want)
	}
}
