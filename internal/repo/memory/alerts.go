package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
)

// Alerts is an in-memory repo.AlertStore.
type Alerts struct {
	mu sync.Mutex
	m  map[domain.SystemID]repo.AlertRecord
}

func NewAlerts() *Alerts {
	return &Alerts{m: make(map[domain.SystemID]repo.AlertRecord)}
}

func (a *Alerts) Get(_ context.Context, id domain.SystemID) (*repo.AlertRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.m[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (a *Alerts) Set(_ context.Context, id domain.SystemID, down bool, sentAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	a.m[id] = repo.AlertRecord{SystemID: id, LastDown: down, LastSentAt: ts}
	return nil
}

var _ repo.AlertStore = (*Alerts)(nil)
