package config

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/repo"
)

// systemsFile is the on-disk shape of the systems file.
type systemsFile struct {
	Systems map[string]rawSystem `yaml:"systems"`
}

type rawSystem struct {
	Host     string   `yaml:"host"`
	Check    string   `yaml:"check"`
	Interval *float64 `yaml:"interval"` // seconds
	Warning  *float64 `yaml:"warning"`  // seconds
	Timeout  *float64 `yaml:"timeout"`  // seconds
	Active   *bool    `yaml:"active"`
	Group    string   `yaml:"group"`
	JSONPath string   `yaml:"json_path"`
}

func (r rawSystem) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Host, validation.Required),
		validation.Field(&r.Interval, validation.Min(0.0)),
		validation.Field(&r.Warning, validation.Min(0.0)),
		validation.Field(&r.Timeout, validation.Min(0.0)),
	)
}

func (r rawSystem) resolve(id domain.SystemID) domain.SystemConfig {
	sc := domain.SystemConfig{
		ID:       id,
		Host:     r.Host,
		Check:    r.Check,
		Interval: seconds(r.Interval, domain.DefaultInterval),
		Warning:  seconds(r.Warning, domain.DefaultWarning),
		Timeout:  seconds(r.Timeout, domain.DefaultTimeout),
		Active:   true,
		Group:    r.Group,
		JSONPath: r.JSONPath,
	}
	if sc.Check == "" {
		sc.Check = domain.DefaultCheck
	}
	if r.Active != nil {
		sc.Active = *r.Active
	}
	return sc
}

func seconds(v *float64, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	return time.Duration(*v * float64(time.Second))
}

// ParseSystems decodes and validates a systems document. An empty document
// or one without a systems key yields an empty, non-nil map.
func ParseSystems(data []byte) (map[domain.SystemID]domain.SystemConfig, error) {
	var f systemsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse systems: %w", err)
	}

	ids := make([]string, 0, len(f.Systems))
	for id := range f.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs error
	out := make(map[domain.SystemID]domain.SystemConfig, len(ids))
	for _, id := range ids {
		raw := f.Systems[id]
		if err := raw.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("system %q: %w", id, err))
			continue
		}
		out[domain.SystemID(id)] = raw.resolve(domain.SystemID(id))
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// LoadSystems reads and parses the systems file at path.
func LoadSystems(path string) (map[domain.SystemID]domain.SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read systems: %w", err)
	}
	return ParseSystems(data)
}

// Store hot-reloads the systems file into a generation store. A reload only
// happens when the file's modification time is strictly newer than the last
// one applied; failures leave the live generation untouched.
type Store struct {
	path string
	gens repo.GenerationStore
	log  *zap.Logger
	now  func() time.Time

	mu      sync.Mutex
	applied time.Time
}

func NewStore(path string, gens repo.GenerationStore, log *zap.Logger) *Store {
	return &Store{
		path: path,
		gens: gens,
		log:  log,
		now:  time.Now,
	}
}

func (s *Store) Path() string { return s.path }

// Reload applies the systems file if it changed and reports whether a new
// generation was installed.
func (s *Store) Reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		s.log.Warn("config_reload_failed", zap.String("path", s.path), zap.Error(err))
		return false
	}
	mtime := info.ModTime()
	if !mtime.After(s.applied) {
		return false
	}

	systems, err := LoadSystems(s.path)
	if err != nil {
		s.log.Error("config_reload_failed", zap.String("path", s.path), zap.Error(err))
		return false
	}

	s.gens.Apply(systems, s.now())
	s.applied = mtime
	s.log.Info("config_reloaded",
		zap.String("path", s.path),
		zap.Int("systems", len(systems)),
		zap.Time("mtime", mtime),
	)
	return true
}
