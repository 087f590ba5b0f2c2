package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kepixel/kepixel-go/pkg/kepixel"
	"github.com/kepixel/kepixel-go/pkg/kepixel/config"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
)

type heartbeatFlags struct {
	ActiveTime time.Duration
	Interval   time.Duration
	Duration   time.Duration
	Watch      bool
}

func newHeartbeatCmd(global *globalFlags) *cobra.Command {
	flags := &heartbeatFlags{}

	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Send heartbeat pings until interrupted",
		Long: `Run the heartbeat timer. With no host page the session counts as visible,
so a ping is sent every active time. With --watch the config file is
reloaded and applied when it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHeartbeat(cmd, global, flags)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&flags.ActiveTime, "active-time", 0, "Idle threshold (default from config, else 15s)")
	f.DurationVar(&flags.Interval, "interval", 0, "Check interval (default 5s)")
	f.DurationVar(&flags.Duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	f.BoolVar(&flags.Watch, "watch", false, "Reload the config file on change")
	return cmd
}

func runHeartbeat(cmd *cobra.Command, global *globalFlags, flags *heartbeatFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flags.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Duration)
		defer cancel()
	}

	shutdown, err := setupTracing(ctx, global, "kepixel-heartbeat")
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	settings, err := loadSettings(global)
	if err != nil {
		return err
	}
	settings.Heartbeat.Enabled = true
	if flags.ActiveTime > 0 {
		settings.Heartbeat.ActiveTime = flags.ActiveTime
	}

	logger := newLogger(cmd.ErrOrStderr(), global.LogLevel)
	opts := []kepixel.Option{
		kepixel.WithLogger(logger),
		kepixel.WithSpanManager(observability.NewSpanManager()),
	}
	if flags.Interval > 0 {
		opts = append(opts, kepixel.WithHeartbeatInterval(flags.Interval))
	}
	tracker, err := kepixel.FromSettings(settings, opts...)
	if err != nil {
		return err
	}

	if flags.Watch && global.Config != "" {
		watcher, err := config.NewWatcher(global.Config, func(s config.Settings) {
			s.Heartbeat.Enabled = true
			if err := tracker.Apply(s); err != nil {
				logger.Warn("config not applied", "error", err)
			}
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	logger.Info("heartbeat running",
		"app_id", tracker.AppID(),
		"active_time", tracker.HeartbeatState().ActiveTime.String(),
	)
	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return tracker.Close(closeCtx)
}
