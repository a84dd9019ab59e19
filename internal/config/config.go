package config

import (
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Settings are the process-level knobs. The monitored systems live in a
// separate YAML file (see Store).
type Settings struct {
	Addr            string        // API bind address, e.g., "127.0.0.1:8080" or ":8080"
	LogDir          string        // logs directory
	LogLevel        string        // debug | info | warn | error
	ConfigFile      string        // systems file, hot-reloaded
	AuditLog        string        // append-only unhealthy-event log
	Tick            time.Duration // scheduler cadence
	PushInterval    time.Duration // websocket status push cadence
	SlackWebhook    string        // empty disables alerts
	AlertCooldown   time.Duration
	AlertOnRecovery bool
	TriggerRPM      int // on-demand trigger rate limit per client IP, 0 disables
	TriggerBurst    int
}

// NewViper returns a viper instance with defaults set and environment lookup
// enabled. Keys match their environment variable, lower-cased.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("api_addr", "127.0.0.1:8080")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", LogLevelInfo)
	v.SetDefault("config_file", "config/config.yaml")
	v.SetDefault("audit_log", "logs.txt")
	v.SetDefault("tick_ms", 1000)
	v.SetDefault("push_interval_ms", 5000)
	v.SetDefault("slack_webhook", "")
	v.SetDefault("alert_cooldown_ms", 5*60*1000)
	v.SetDefault("alert_on_recovery", true)
	v.SetDefault("trigger_rpm", 60)
	v.SetDefault("trigger_burst", 10)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper reads and validates Settings.
func FromViper(v *viper.Viper) (Settings, error) {
	s := Settings{
		Addr:            strings.TrimSpace(v.GetString("api_addr")),
		LogDir:          v.GetString("log_dir"),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		ConfigFile:      v.GetString("config_file"),
		AuditLog:        v.GetString("audit_log"),
		Tick:            time.Duration(v.GetInt("tick_ms")) * time.Millisecond,
		PushInterval:    time.Duration(v.GetInt("push_interval_ms")) * time.Millisecond,
		SlackWebhook:    strings.TrimSpace(v.GetString("slack_webhook")),
		AlertCooldown:   time.Duration(v.GetInt("alert_cooldown_ms")) * time.Millisecond,
		AlertOnRecovery: v.GetBool("alert_on_recovery"),
		TriggerRPM:      v.GetInt("trigger_rpm"),
		TriggerBurst:    v.GetInt("trigger_burst"),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromEnv is FromViper over defaults and the process environment only.
func FromEnv() (Settings, error) {
	return FromViper(NewViper())
}

func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Addr, validation.Required, validation.By(validateHostPort)),
		validation.Field(&s.LogDir, validation.Required),
		validation.Field(&s.LogLevel,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
		validation.Field(&s.ConfigFile, validation.Required),
		validation.Field(&s.AuditLog, validation.Required),
		validation.Field(&s.Tick, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&s.PushInterval, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&s.SlackWebhook, is.URL),
		validation.Field(&s.AlertCooldown, validation.Min(time.Duration(0))),
		validation.Field(&s.TriggerRPM, validation.Min(0)),
		validation.Field(&s.TriggerBurst, validation.Min(0)),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}
