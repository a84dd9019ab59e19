package domain

import "time"

type SystemID string

// StatusKind is the health classification of a system.
type StatusKind string

const (
	StatusPending  StatusKind = "PENDING"
	StatusUp       StatusKind = "UP"
	StatusWarning  StatusKind = "WARNING"
	StatusDown     StatusKind = "DOWN"
	StatusUnknown  StatusKind = "UNKNOWN"
	StatusDisabled StatusKind = "DISABLED"
)

const (
	DefaultCheck    = "default"
	DefaultInterval = 60 * time.Second
	DefaultWarning  = 30 * time.Second
	DefaultTimeout  = 60 * time.Second

	InitialMessage = "Initializing..."
	PausedMessage  = "Monitoring Paused"
)

// SystemConfig is one monitored endpoint as read from the systems file.
// A generation replaces it wholesale; it is never edited in place.
type SystemConfig struct {
	ID       SystemID      `json:"id"`
	Host     string        `json:"host"`
	Check    string        `json:"check"`
	Interval time.Duration `json:"interval"`
	Warning  time.Duration `json:"warning"`
	Timeout  time.Duration `json:"timeout"`
	Active   bool          `json:"active"`
	Group    string        `json:"group,omitempty"`
	JSONPath string        `json:"json_path,omitempty"`
}

type StatusRecord struct {
	Status    StatusKind `json:"status"`
	LastCheck *time.Time `json:"last_check"`
	LatencyMS float64    `json:"latency"`
	Message   string     `json:"message"`
}

// NewStatusRecord is the record every id gets the first time it appears.
func NewStatusRecord() *StatusRecord {
	return &StatusRecord{
		Status:  StatusPending,
		Message: InitialMessage,
	}
}

// Generation is one configuration snapshot together with its status map.
type Generation struct {
	Systems  map[SystemID]SystemConfig `json:"systems"`
	IDs      []SystemID                `json:"ids"` // sorted
	Status   map[SystemID]StatusRecord `json:"status"`
	LoadedAt time.Time                 `json:"loaded_at"`
}
