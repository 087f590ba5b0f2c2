// Package main is the entry point for the kepixel binary.
// It sends tracking calls from the command line, runs a heartbeat, and
// serves a development collector.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kepixel/kepixel-go/internal/telemetry"
	"github.com/kepixel/kepixel-go/pkg/kepixel/config"
)

const defaultLogLevel = "info"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	Config       string
	AppID        string
	Endpoint     string
	LogLevel     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for kepixel.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "kepixel",
		Short: "Kepixel analytics client",
		Long: `Send tracking calls to a Kepixel collector.

Settings come from an optional YAML or JSON file, then KEPIXEL_* environment
variables, then flags.

Example:
  kepixel send purchase --app-id my-app --email u@example.com --data value=59.98 --data currency=USD
  kepixel sink --addr :8080 --db ./sink.db`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.Config, "config", "c", "", "Path to configuration file (YAML or JSON)")
	pf.StringVar(&flags.AppID, "app-id", "", "Application identifier")
	pf.StringVar(&flags.Endpoint, "endpoint", "", "Collector base URL")
	pf.StringVarP(&flags.LogLevel, "log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.OTLPEndpoint, "otlp-endpoint", "", "OTLP/gRPC trace collector (host:port)")
	pf.BoolVar(&flags.OTLPInsecure, "otlp-insecure", false, "Disable TLS for the OTLP exporter")

	rootCmd.AddCommand(
		newSendCmd(flags),
		newHeartbeatCmd(flags),
		newSinkCmd(flags),
	)
	return rootCmd
}

// newLogger builds a text logger at the named level. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// loadSettings merges the config file, the environment and flags.
func loadSettings(flags *globalFlags) (config.Settings, error) {
	s := config.Defaults()
	if flags.Config != "" {
		var err error
		s, err = config.FromFile(flags.Config)
		if err != nil {
			return config.Settings{}, err
		}
	}

	s, err := s.ApplyEnv()
	if err != nil {
		return config.Settings{}, err
	}

	if flags.AppID != "" {
		s.AppID = flags.AppID
	}
	if flags.Endpoint != "" {
		s.Endpoint = flags.Endpoint
	}
	return s, nil
}

// setupTracing installs the OTLP tracer provider when an endpoint is given.
func setupTracing(ctx context.Context, flags *globalFlags, service string) (telemetry.Shutdown, error) {
	return telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: service,
		Endpoint:    flags.OTLPEndpoint,
		Insecure:    flags.OTLPInsecure,
	})
}
