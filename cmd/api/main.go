package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sysmon/internal/audit"
	"github.com/hamed0406/sysmon/internal/config"
	"github.com/hamed0406/sysmon/internal/httpapi"
	"github.com/hamed0406/sysmon/internal/logging"
	"github.com/hamed0406/sysmon/internal/notify"
	"github.com/hamed0406/sysmon/internal/probe"
	"github.com/hamed0406/sysmon/internal/repo/memory"
	"github.com/hamed0406/sysmon/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(start func(context.Context, config.Settings) error) *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:          "sysmon",
		Short:        "Continuously probe the systems in the config file and serve their status",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return start(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.String("addr", "", "API bind address (API_ADDR)")
	f.String("config", "", "systems file, reloaded on change (CONFIG_FILE)")
	f.String("audit-log", "", "audit log of unhealthy results (AUDIT_LOG)")
	f.String("log-dir", "", "service log directory (LOG_DIR)")
	f.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	f.Int("tick-ms", 0, "scheduler tick in milliseconds (TICK_MS)")
	bindFlags(v, cmd, map[string]string{
		"api_addr":    "addr",
		"config_file": "config",
		"audit_log":   "audit-log",
		"log_dir":     "log-dir",
		"log_level":   "log-level",
		"tick_ms":     "tick-ms",
	})
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func run(ctx context.Context, cfg config.Settings) (err error) {
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := memory.New()
	systems := config.NewStore(cfg.ConfigFile, store, logger)
	if !systems.Reload() {
		logger.Warn("config_initial_load_failed", zap.String("path", systems.Path()))
	}

	auditLog := audit.Open(cfg.AuditLog)
	defer func() { err = multierr.Append(err, auditLog.Close()) }()

	runner := scheduler.NewRunner(logger, store, probe.DefaultRegistry(), auditLog)
	sched := scheduler.New(logger, systems, store, runner, cfg.Tick)
	trigger := scheduler.NewTrigger(store, runner)
	alerter := scheduler.NewAlerter(
		logger,
		store,
		memory.NewAlerts(),
		notify.Notifiers(notify.Log{Logger: logger}, cfg.SlackWebhook),
		scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
			PollInterval:    cfg.Tick,
		},
	)

	api := httpapi.NewServer(logger, store, trigger, httpapi.Options{
		PushInterval: cfg.PushInterval,
		TriggerRPM:   cfg.TriggerRPM,
		TriggerBurst: cfg.TriggerBurst,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedStopped := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedStopped)
	}()
	go func() { _ = alerter.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_error", zap.Error(err))
			return err
		}
	}
	cancel()

	logger.Info("shutdown_started")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}

	drained := make(chan struct{})
	go func() {
		<-schedStopped
		sched.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		logger.Info("shutdown_complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown_probes_abandoned")
	}
	return nil
}
