package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kepixel/kepixel-go/pkg/kepixel"
	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
)

type sendFlags struct {
	Email   string
	Phone   string
	UserID  string
	Data    []string
	Action  bool
	Timeout time.Duration
}

func newSendCmd(global *globalFlags) *cobra.Command {
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send <event>",
		Short: "Send one tracking call and wait for the outcome",
		Long: `Send one event. The event key is mapped to its canonical collector name
(purchase -> "Order Completed"); unknown keys are sent unchanged.
With --action the argument is sent as a beacon action instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, global, flags, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Email, "email", "", "User email")
	f.StringVar(&flags.Phone, "phone", "", "User phone")
	f.StringVar(&flags.UserID, "user-id", "", "Explicit user identifier")
	f.StringArrayVarP(&flags.Data, "data", "d", nil, "Event field as key=value (repeatable)")
	f.BoolVar(&flags.Action, "action", false, "Send the argument as a beacon action")
	f.DurationVar(&flags.Timeout, "timeout", 10*time.Second, "How long to wait for the collector")
	return cmd
}

func runSend(cmd *cobra.Command, global *globalFlags, flags *sendFlags, name string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), flags.Timeout)
	defer cancel()

	shutdown, err := setupTracing(ctx, global, "kepixel-send")
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	settings, err := loadSettings(global)
	if err != nil {
		return err
	}
	if flags.UserID != "" {
		settings.UserID = flags.UserID
	}

	data, err := parseData(flags.Data)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), global.LogLevel)
	tracker, err := kepixel.FromSettings(settings,
		kepixel.WithLogger(logger),
		kepixel.WithSpanManager(observability.NewSpanManager()),
		kepixel.WithMetrics(observability.NewMetricsRecorder()),
	)
	if err != nil {
		return err
	}
	defer func() { _ = tracker.Close(context.Background()) }()

	var user *event.UserData
	if flags.Email != "" || flags.Phone != "" {
		user = &event.UserData{Email: flags.Email, Phone: flags.Phone}
	}

	var call *transport.Call
	if flags.Action {
		call, err = tracker.TrackAction(name, user)
		if err != nil {
			return err
		}
	} else {
		call = tracker.TrackCustomEvent(event.Custom{
			Base: event.Base{Source: "cli", UserData: user},
			Name: name,
			Data: data,
		})
	}

	outcome, err := call.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", name, err)
	}
	if outcome.Err != nil {
		return fmt.Errorf("send %s: %w", name, outcome.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s (%s) to %s: %d\n",
		name, event.CanonicalName(name), outcome.Endpoint, outcome.StatusCode)
	return nil
}

// parseData turns key=value pairs into event fields. Numbers and booleans
// are typed; everything else stays a string.
func parseData(pairs []string) (map[string]any, error) {
	data := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid data %q: expected key=value", pair)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			data[key] = n
			continue
		}
		if b, err := strconv.ParseBool(value); err == nil {
			data[key] = b
			continue
		}
		data[key] = value
	}
	return data, nil
}
