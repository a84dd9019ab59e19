// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/hamed0406/sysmon/internal/config"
	"github.com/hamed0406/sysmon/internal/domain"
	"github.com/hamed0406/sysmon/internal/probe"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail("settings: " + err.Error())
	}
	ok("API_ADDR=" + cfg.Addr)
	ok("LOG_DIR=" + cfg.LogDir + " LOG_LEVEL=" + cfg.LogLevel)
	ok("AUDIT_LOG=" + cfg.AuditLog)

	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK empty; alerts only go to the service log.")
	} else {
		ok("SLACK_WEBHOOK present")
	}
	if cfg.TriggerRPM == 0 {
		warn("TRIGGER_RPM=0; /check/now is not rate limited.")
	}

	systems, err := config.LoadSystems(cfg.ConfigFile)
	if err != nil {
		fail(cfg.ConfigFile + ": " + err.Error())
	}
	if len(systems) == 0 {
		warn(cfg.ConfigFile + " defines no systems; nothing will be monitored.")
	}

	known := map[string]bool{}
	for _, tag := range probe.DefaultRegistry().Tags() {
		known[tag] = true
	}

	ids := make([]string, 0, len(systems))
	for id := range systems {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, w := range systemWarnings(systems[domain.SystemID(id)], known) {
			warn(id + ": " + w)
		}
	}

	ok(fmt.Sprintf("%s: %d system(s)", cfg.ConfigFile, len(systems)))
	ok("preflight passed")
}

func systemWarnings(sc domain.SystemConfig, known map[string]bool) []string {
	var out []string
	if !known[sc.Check] {
		out = append(out, fmt.Sprintf("check %q is unknown; the default HTTP check will run.", sc.Check))
	}
	if sc.Timeout > 0 && sc.Warning >= sc.Timeout {
		out = append(out, "warning >= timeout; it can never report WARNING.")
	}
	if !sc.Active {
		out = append(out, "inactive; shown as DISABLED.")
	}
	if sc.Check == "json" && sc.JSONPath == "" {
		out = append(out, "json check without json_path only asserts the body is valid JSON.")
	}
	if sc.Check == "icmp" {
		out = append(out, "icmp check needs CAP_NET_RAW or root.")
	}
	return out
}
