package probe

import (
	"context"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/hamed0406/sysmon/internal/domain"
)

const maxJSONBody = 1 << 20

// JSONChecker runs the HTTP check and then asserts on the response body. With
// a JSONPath the value at that path must exist and be truthy; without one the
// body only has to be valid JSON.
type JSONChecker struct {
	HTTP *HTTPChecker
}

func NewJSONChecker(h *HTTPChecker) *JSONChecker {
	return &JSONChecker{HTTP: h}
}

func (j *JSONChecker) Check(ctx context.Context, req Request) Outcome {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	out, resp := j.HTTP.roundTrip(ctx, req)
	if resp == nil {
		return out
	}
	defer resp.Body.Close()
	if !out.Healthy {
		return out
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return timedOut()
		}
		return connectionError()
	}

	if req.JSONPath == "" {
		if !gjson.ValidBytes(body) {
			return assertFailed(out, "json")
		}
		return out
	}
	if res := gjson.GetBytes(body, req.JSONPath); !res.Exists() || !res.Bool() {
		return assertFailed(out, req.JSONPath)
	}
	return out
}

func assertFailed(out Outcome, what string) Outcome {
	return Outcome{
		Status:     domain.StatusDown,
		Message:    fmt.Sprintf("ASSERT (%s)", what),
		LatencyMS:  out.LatencyMS,
		StatusCode: out.StatusCode,
	}
}
