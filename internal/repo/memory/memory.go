package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
)

type generation struct {
	systems  map[domain.SystemID]domain.SystemConfig
	ids      []domain.SystemID
	status   map[domain.SystemID]*domain.StatusRecord
	loadedAt time.Time
}

// Store owns the live generation: the system configs and their status records.
// Both are replaced by a single pointer swap so readers never see one without
// the other.
type Store struct {
	mu  sync.RWMutex
	gen *generation
}

func New() *Store {
	return &Store{
		gen: &generation{
			systems: make(map[domain.SystemID]domain.SystemConfig),
			status:  make(map[domain.SystemID]*domain.StatusRecord),
		},
	}
}

// Apply installs a new set of systems. Records of surviving ids are carried
// over as-is, new ids start PENDING and ids missing from systems are dropped.
func (m *Store) Apply(systems map[domain.SystemID]domain.SystemConfig, loadedAt time.Time) {
	next := &generation{
		systems:  make(map[domain.SystemID]domain.SystemConfig, len(systems)),
		ids:      make([]domain.SystemID, 0, len(systems)),
		status:   make(map[domain.SystemID]*domain.StatusRecord, len(systems)),
		loadedAt: loadedAt,
	}
	for id, sc := range systems {
		sc.ID = id
		next.systems[id] = sc
		next.ids = append(next.ids, id)
	}
	sort.Slice(next.ids, func(i, j int) bool { return next.ids[i] < next.ids[j] })

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range next.ids {
		if rec, ok := m.gen.status[id]; ok {
			next.status[id] = rec
			continue
		}
		next.status[id] = domain.NewStatusRecord()
	}
	m.gen = next
}

func (m *Store) Update(id domain.SystemID, p repo.StatusPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.gen.status[id]
	if rec == nil {
		return fmt.Errorf("update %q: %w", id, repo.ErrNoSuchSystem)
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.LastCheck != nil {
		at := *p.LastCheck
		rec.LastCheck = &at
	}
	if p.LatencyMS != nil {
		rec.LatencyMS = *p.LatencyMS
	}
	if p.Message != nil {
		rec.Message = *p.Message
	}
	return nil
}

func (m *Store) Status(id domain.SystemID) (domain.StatusRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec := m.gen.status[id]
	if rec == nil {
		return domain.StatusRecord{}, false
	}
	return *rec, true
}

// System returns the live config for id.
func (m *Store) System(id domain.SystemID) (domain.SystemConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.gen.systems[id]
	return sc, ok
}

func (m *Store) Snapshot() domain.Generation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := domain.Generation{
		Systems:  make(map[domain.SystemID]domain.SystemConfig, len(m.gen.systems)),
		IDs:      make([]domain.SystemID, len(m.gen.ids)),
		Status:   make(map[domain.SystemID]domain.StatusRecord, len(m.gen.status)),
		LoadedAt: m.gen.loadedAt,
	}
	copy(out.IDs, m.gen.ids)
	for id, sc := range m.gen.systems {
		out.Systems[id] = sc
	}
	for id, rec := range m.gen.status {
		out.Status[id] = *rec
	}
	return out
}

var _ repo.GenerationStore = (*Store)(nil)
