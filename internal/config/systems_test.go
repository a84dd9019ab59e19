package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
	"github.com/hamed0406/sysmon/internal/repo/memory"
)

const twoSystems = `
systems:
  web:
    host: example.com
    interval: 10
    warning: 2.5
    group: frontend
  db:
    host: db.internal:5432
    check: tcp
    active: false
`

// writeAt writes content and pins the file's mtime, so tests don't depend on
// filesystem timestamp resolution.
func writeAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func newTestStore(t *testing.T) (*Store, *memory.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	gens := memory.New()
	return NewStore(path, gens, zap.NewNop()), gens, path
}

func TestParseSystems_Defaults(t *testing.T) {
	g := NewWithT(t)

	systems, err := ParseSystems([]byte(twoSystems))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(systems).To(HaveLen(2))

	web := systems["web"]
	g.Expect(web.ID).To(Equal(domain.SystemID("web")))
	g.Expect(web.Check).To(Equal("default"))
	g.Expect(web.Interval).To(Equal(10 * time.Second))
	g.Expect(web.Warning).To(Equal(2500 * time.Millisecond))
	g.Expect(web.Timeout).To(Equal(60 * time.Second))
	g.Expect(web.Active).To(BeTrue())
	g.Expect(web.Group).To(Equal("frontend"))

	db := systems["db"]
	g.Expect(db.Check).To(Equal("tcp"))
	g.Expect(db.Interval).To(Equal(60 * time.Second))
	g.Expect(db.Warning).To(Equal(30 * time.Second))
	g.Expect(db.Active).To(BeFalse())
}

func TestParseSystems_EmptyDocument(t *testing.T) {
	g := NewWithT(t)

	for _, doc := range []string{"", "title: nothing here\n", "systems:\n"} {
		systems, err := ParseSystems([]byte(doc))
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(systems).NotTo(BeNil())
		g.Expect(systems).To(BeEmpty())
	}
}

func TestParseSystems_AggregatesErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := ParseSystems([]byte(`
systems:
  a:
    check: tcp
  b:
    host: b.example
    interval: -1
  c:
    host: c.example
`))
	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring(`system "a"`))
	g.Expect(err.Error()).To(ContainSubstring(`system "b"`))
	g.Expect(err.Error()).NotTo(ContainSubstring(`system "c"`))
}

func TestStore_ReloadIsIdempotent(t *testing.T) {
	g := NewWithT(t)
	s, gens, path := newTestStore(t)
	writeAt(t, path, twoSystems, time.Now().Add(-time.Minute))

	g.Expect(s.Reload()).To(BeTrue())
	before := gens.Snapshot()

	g.Expect(s.Reload()).To(BeFalse())
	after := gens.Snapshot()
	g.Expect(after.LoadedAt).To(Equal(before.LoadedAt))
	g.Expect(after.IDs).To(Equal(before.IDs))
}

func TestStore_ReloadRequiresStrictlyNewerMtime(t *testing.T) {
	g := NewWithT(t)
	s, gens, path := newTestStore(t)
	mtime := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeAt(t, path, twoSystems, mtime)
	g.Expect(s.Reload()).To(BeTrue())

	// same mtime, different content: not picked up
	writeAt(t, path, "systems:\n  only:\n    host: only.example\n", mtime)
	g.Expect(s.Reload()).To(BeFalse())
	g.Expect(gens.Snapshot().IDs).To(ConsistOf(domain.SystemID("db"), domain.SystemID("web")))

	writeAt(t, path, "systems:\n  only:\n    host: only.example\n", mtime.Add(time.Second))
	g.Expect(s.Reload()).To(BeTrue())
	g.Expect(gens.Snapshot().IDs).To(ConsistOf(domain.SystemID("only")))
}

func TestStore_ReloadPreservesStatusAcrossHostChange(t *testing.T) {
	g := NewWithT(t)
	s, gens, path := newTestStore(t)
	t0 := time.Now().Add(-time.Hour)
	writeAt(t, path, twoSystems, t0)
	g.Expect(s.Reload()).To(BeTrue())

	checked := time.Now().Add(-30 * time.Second)
	g.Expect(gens.Update("web", repo.Outcome(domain.StatusWarning, "SLOW (3000ms)", 3000, checked))).To(Succeed())

	writeAt(t, path, `
systems:
  web:
    host: other.example.com
  api:
    host: api.example.com
`, t0.Add(time.Minute))
	g.Expect(s.Reload()).To(BeTrue())

	web, ok := gens.Status("web")
	g.Expect(ok).To(BeTrue())
	g.Expect(web.Status).To(Equal(domain.StatusWarning))
	g.Expect(web.LatencyMS).To(Equal(3000.0))
	g.Expect(web.LastCheck).NotTo(BeNil())
	g.Expect(web.LastCheck.Equal(checked)).To(BeTrue())

	sc, _ := gens.System("web")
	g.Expect(sc.Host).To(Equal("other.example.com"))

	api, ok := gens.Status("api")
	g.Expect(ok).To(BeTrue())
	g.Expect(api.Status).To(Equal(domain.StatusPending))
	g.Expect(api.LastCheck).To(BeNil())
	g.Expect(api.Message).To(Equal("Initializing..."))

	_, ok = gens.Status("db")
	g.Expect(ok).To(BeFalse())
}

func TestStore_ReloadFailureKeepsPreviousGeneration(t *testing.T) {
	g := NewWithT(t)
	s, gens, path := newTestStore(t)
	t0 := time.Now().Add(-time.Hour)
	writeAt(t, path, twoSystems, t0)
	g.Expect(s.Reload()).To(BeTrue())

	writeAt(t, path, "systems: [this is: not a mapping", t0.Add(time.Minute))
	g.Expect(s.Reload()).To(BeFalse())
	g.Expect(gens.Snapshot().IDs).To(ConsistOf(domain.SystemID("db"), domain.SystemID("web")))

	// missing host is rejected as a whole
	writeAt(t, path, "systems:\n  web:\n    check: tcp\n", t0.Add(2*time.Minute))
	g.Expect(s.Reload()).To(BeFalse())
	g.Expect(gens.Snapshot().IDs).To(HaveLen(2))

	// a fixed file is picked up on the next call
	writeAt(t, path, "systems:\n  web:\n    host: example.com\n", t0.Add(3*time.Minute))
	g.Expect(s.Reload()).To(BeTrue())
	g.Expect(gens.Snapshot().IDs).To(ConsistOf(domain.SystemID("web")))
}

func TestStore_ReloadMissingFile(t *testing.T) {
	g := NewWithT(t)
	s, gens, _ := newTestStore(t)

	g.Expect(s.Reload()).To(BeFalse())
	g.Expect(gens.Snapshot().IDs).To(BeEmpty())
}
