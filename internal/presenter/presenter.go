// Package presenter orders systems for display, worst health first.
package presenter

import (
	"sort"

	"github.com/hamed0406/sysmon/internal/domain"
)

// unranked sorts statuses the table doesn't know after DISABLED.
const unranked = 99

var priority = map[domain.StatusKind]int{
	domain.StatusDown:     0,
	domain.StatusUnknown:  1,
	domain.StatusWarning:  2,
	domain.StatusUp:       3,
	domain.StatusPending:  4,
	domain.StatusDisabled: 5,
}

// Priority returns the display rank of s; lower ranks come first.
func Priority(s domain.StatusKind) int {
	if p, ok := priority[s]; ok {
		return p
	}
	return unranked
}

// Entry is one row of the status view.
type Entry struct {
	domain.SystemConfig
	domain.StatusRecord
}

// Build returns one entry per system that has a status record, sorted by
// priority and then by id.
func Build(gen domain.Generation) []Entry {
	out := make([]Entry, 0, len(gen.IDs))
	for _, id := range gen.IDs {
		st, ok := gen.Status[id]
		if !ok {
			continue
		}
		out = append(out, Entry{SystemConfig: gen.Systems[id], StatusRecord: st})
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := Priority(out[i].Status), Priority(out[j].Status)
		if pi != pj {
			return pi < pj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
