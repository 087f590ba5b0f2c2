package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kepixel/kepixel-go/internal/sink"
)

type sinkFlags struct {
	Addr string
	DB   string
}

func newSinkCmd(global *globalFlags) *cobra.Command {
	flags := &sinkFlags{}

	cmd := &cobra.Command{
		Use:   "sink",
		Short: "Serve a development collector",
		Long: `Serve a collector that accepts beacons, /v1/track and /v1/identify and
stores them. Received calls are listed on /v1/records; Prometheus metrics
are on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSink(cmd, global, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Addr, "addr", ":8080", "Listen address")
	f.StringVar(&flags.DB, "db", "", "SQLite database path (in memory when empty)")
	return cmd
}

// openStore returns a SQLite store for path, or a memory store when path is empty.
func openStore(path string) (sink.Store, error) {
	if path == "" {
		return sink.NewMemoryStore(), nil
	}
	return sink.NewSQLiteStore(path)
}

func runSink(cmd *cobra.Command, global *globalFlags, flags *sinkFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := setupTracing(ctx, global, "kepixel-sink")
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	logger := newLogger(cmd.ErrOrStderr(), global.LogLevel)

	store, err := openStore(flags.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	srv := sink.NewServer(store, sink.WithLogger(logger), sink.WithRegistry(reg))

	httpServer := &http.Server{
		Addr:              flags.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("sink listening", "addr", flags.Addr, "db", flags.DB)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("sink shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
