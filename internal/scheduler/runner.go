package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/probe"
	"github.com/hamed0406/sysmon/internal/repo"
)

// Auditor receives every unhealthy outcome.
type Auditor interface {
	Append(at time.Time, status domain.StatusKind, host, message string) error
}

// Runner is the per-system probe primitive shared by the scheduler and
// on-demand triggers: run the check, audit failures, record the result.
type Runner struct {
	Logger   *zap.Logger
	Registry repo.StatusRegistry
	Checks   *probe.Registry
	Audit    Auditor // optional
	now      func() time.Time
}

func NewRunner(logger *zap.Logger, reg repo.StatusRegistry, checks *probe.Registry, audit Auditor) *Runner {
	return &Runner{
		Logger:   logger,
		Registry: reg,
		Checks:   checks,
		Audit:    audit,
		now:      time.Now,
	}
}

// Probe checks sc once and writes the outcome. A system removed by a reload
// while its probe was in flight is dropped quietly.
func (r *Runner) Probe(ctx context.Context, sc domain.SystemConfig) probe.Outcome {
	out := r.Checks.Lookup(sc.Check).Check(ctx, probe.RequestFor(sc))
	at := r.now()

	if !out.Healthy && r.Audit != nil {
		if err := r.Audit.Append(at, out.Status, sc.Host, out.Message); err != nil {
			r.Logger.Error("audit_append_error",
				zap.String("system_id", string(sc.ID)),
				zap.Error(err),
			)
		}
	}

	err := r.Registry.Update(sc.ID, repo.Outcome(out.Status, out.Message, out.LatencyMS, at))
	switch {
	case errors.Is(err, repo.ErrNoSuchSystem):
		r.Logger.Debug("probe_result_dropped", zap.String("system_id", string(sc.ID)))
	case err != nil:
		r.Logger.Warn("probe_update_error",
			zap.String("system_id", string(sc.ID)),
			zap.Error(err),
		)
	default:
		r.Logger.Debug("probe_checked",
			zap.String("system_id", string(sc.ID)),
			zap.String("host", sc.Host),
			zap.String("check", sc.Check),
			zap.String("status", string(out.Status)),
			zap.Int("http_status", out.StatusCode),
			zap.Float64("latency_ms", out.LatencyMS),
			zap.String("message", out.Message),
		)
	}
	return out
}
