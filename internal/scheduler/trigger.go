package scheduler

import (
	"context"
	"sync"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
)

// Mode selects which systems an on-demand trigger probes.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeGroup  Mode = "group"
	ModeAll    Mode = "all"
)

// ParseMode maps a request value to a Mode. Empty means single; anything else
// unrecognised is reported as not ok.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeSingle:
		return ModeSingle, true
	case ModeGroup:
		return ModeGroup, true
	case ModeAll:
		return ModeAll, true
	}
	return Mode(s), false
}

// Trigger runs probes on request and waits for all of them.
type Trigger struct {
	Systems repo.GenerationSource
	Runner  *Runner
}

func NewTrigger(systems repo.GenerationSource, runner *Runner) *Trigger {
	return &Trigger{Systems: systems, Runner: runner}
}

// Trigger probes every selected system concurrently and returns once all of
// them have written their results. It returns the number of probes run;
// unknown targets and modes select nothing.
func (t *Trigger) Trigger(ctx context.Context, target string, mode Mode) int {
	selected := Select(t.Systems.Snapshot(), target, mode)

	var wg sync.WaitGroup
	for _, sc := range selected {
		wg.Add(1)
		go func(sc domain.SystemConfig) {
			defer wg.Done()
			t.Runner.Probe(ctx, sc)
		}(sc)
	}
	wg.Wait()
	return len(selected)
}

// Select returns the systems of gen matched by target and mode, in id order.
func Select(gen domain.Generation, target string, mode Mode) []domain.SystemConfig {
	var out []domain.SystemConfig
	switch mode {
	case ModeAll:
		for _, id := range gen.IDs {
			out = append(out, gen.Systems[id])
		}
	case ModeGroup:
		if target == "" {
			return nil
		}
		for _, id := range gen.IDs {
			if sc := gen.Systems[id]; sc.Group == target {
				out = append(out, sc)
			}
		}
	case ModeSingle:
		if sc, ok := gen.Systems[domain.SystemID(target)]; ok {
			out = append(out, sc)
		}
	}
	return out
}
