package repo

import (
	"context"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
)

// AlertRecord holds last-known state and the last time we sent a notification
// for a system. LastDown is the last failing/healthy state we saw, LastSentAt
// is the last time we sent a notification (used for cooldown).
type AlertRecord struct {
	SystemID   domain.SystemID
	LastDown   bool
	LastSentAt *time.Time
}

// AlertStore keeps alert state between alerter scans.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, id domain.SystemID) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the send time is cleared.
	Set(ctx context.Context, id domain.SystemID, down bool, sentAt time.Time) error
}
