package repo

import (
	"errors"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
)

// ErrNoSuchSystem is returned when a status update names an id that is not
// part of the live generation.
var ErrNoSuchSystem = errors.New("no such system")

// StatusPatch carries the fields to merge into a StatusRecord. Nil fields are
// left untouched.
type StatusPatch struct {
	Status    *domain.StatusKind
	LastCheck *time.Time
	LatencyMS *float64
	Message   *string
}

// StatusRegistry is the id -> StatusRecord view shared by probes, the
// scheduler and the presenter.
type StatusRegistry interface {
	Update(id domain.SystemID, p StatusPatch) error
	Status(id domain.SystemID) (domain.StatusRecord, bool)
}

// GenerationSource hands out consistent copies of the live generation.
type GenerationSource interface {
	Snapshot() domain.Generation
}

// GenerationStore is implemented by whatever owns the live generation and can
// swap in a new set of systems.
type GenerationStore interface {
	StatusRegistry
	GenerationSource
	Apply(systems map[domain.SystemID]domain.SystemConfig, loadedAt time.Time)
}

// Outcome builds the patch written after a probe completes.
func Outcome(kind domain.StatusKind, msg string, latencyMS float64, at time.Time) StatusPatch {
	return StatusPatch{
		Status:    &kind,
		LastCheck: &at,
		LatencyMS: &latencyMS,
		Message:   &msg,
	}
}

// Paused is the patch applied to inactive systems on every tick. Latency and
// last check are kept so the history survives a re-enable.
func Paused() StatusPatch {
	kind := domain.StatusDisabled
	msg := domain.PausedMessage
	return StatusPatch{Status: &kind, Message: &msg}
}
