package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

type Alerter struct {
	logger   *zap.Logger
	systems  repo.GenerationSource
	alertDB  repo.AlertStore
	notifier interface {
		Send(context.Context, string, string) error
	}
	cfg AlerterConfig
	now func() time.Time
}

func NewAlerter(
	logger *zap.Logger,
	systems repo.GenerationSource,
	alertDB repo.AlertStore,
	notifier interface {
		Send(context.Context, string, string) error
	},
	cfg AlerterConfig,
) *Alerter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Alerter{
		logger:   logger,
		systems:  systems,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			a.scanOnce(ctx)
		}
	}
}

// down reports whether a status counts as failing for alerting. PENDING and
// DISABLED carry no health information and are ignored.
func down(s domain.StatusKind) (failing, known bool) {
	switch s {
	case domain.StatusDown, domain.StatusUnknown:
		return true, true
	case domain.StatusUp, domain.StatusWarning:
		return false, true
	}
	return false, false
}

// scanOnce compares every system's current status with the last alert state
// and returns how many notifications were sent.
func (a *Alerter) scanOnce(ctx context.Context) int {
	gen := a.systems.Snapshot()
	now := a.now()
	sent := 0

	for _, id := range gen.IDs {
		st, ok := gen.Status[id]
		if !ok {
			continue
		}
		failing, known := down(st.Status)
		if !known {
			continue
		}

		rec, err := a.alertDB.Get(ctx, id)
		if err != nil {
			a.logger.Warn("alert_state_error", zap.String("system_id", string(id)), zap.Error(err))
			continue
		}

		// A system seen healthy for the first time is not a recovery.
		if rec == nil && !failing {
			_ = a.alertDB.Set(ctx, id, false, time.Time{})
			continue
		}
		if rec != nil && rec.LastDown == failing {
			continue
		}

		// Cooldown only applies to DOWN alerts; recoveries bypass it.
		cooled := true
		var lastSent time.Time
		if rec != nil && rec.LastSentAt != nil {
			lastSent = *rec.LastSentAt
			cooled = now.Sub(lastSent) >= a.cfg.Cooldown
		}

		send := (failing && cooled) || (!failing && a.cfg.AlertOnRecovery)
		if !send {
			// Record the new state but keep the previous send time so the
			// cooldown window is not reset.
			_ = a.alertDB.Set(ctx, id, failing, lastSent)
			continue
		}

		title, text := alertMessage(gen.Systems[id], st, failing)
		if err := a.notifier.Send(ctx, title, text); err != nil {
			a.logger.Warn("alert_send_error", zap.String("system_id", string(id)), zap.Error(err))
		}
		_ = a.alertDB.Set(ctx, id, failing, now)
		sent++
	}
	return sent
}

func alertMessage(sc domain.SystemConfig, st domain.StatusRecord, failing bool) (string, string) {
	title := "🔴 System " + string(st.Status)
	if !failing {
		title = "🟢 System RECOVERED"
	}

	checked := "n/a"
	if st.LastCheck != nil {
		checked = st.LastCheck.Format(time.RFC3339)
	}

	text := fmt.Sprintf(
		"System: %s\nHost: %s\nStatus: %s\nLatency: %.0f ms\nMessage: %s\nChecked: %s",
		sc.ID, sc.Host, st.Status, st.LatencyMS, st.Message, checked,
	)
	return title, text
}
