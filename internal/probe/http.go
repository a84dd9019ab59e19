package probe

import (
	"context"
	"net/http"
	"time"
)

// HTTPChecker issues one GET and classifies the response by status code and
// time to headers. Redirects are returned as-is.
type HTTPChecker struct {
	Client *http.Client
	now    func() time.Time
}

func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now: time.Now,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, req Request) Outcome {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	out, resp := h.roundTrip(ctx, req)
	if resp != nil {
		resp.Body.Close()
	}
	return out
}

// roundTrip returns the classified outcome and, when a response arrived, the
// response with its body still open.
func (h *HTTPChecker) roundTrip(ctx context.Context, req Request) (Outcome, *http.Response) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, TargetURL(req.Host), nil)
	if err != nil {
		return connectionError(), nil
	}

	start := h.now()
	resp, err := h.Client.Do(r)
	elapsed := h.now().Sub(start)
	if err != nil {
		if isTimeout(ctx, err) {
			return timedOut(), nil
		}
		return connectionError(), nil
	}
	return classifyStatus(resp.StatusCode, elapsed, req.Warning), resp
}
