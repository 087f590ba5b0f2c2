/*
Package kepixel is a behavioral-analytics client for the Kepixel collector.

Applications call typed tracking methods (page view, purchase, search,
custom event, ...). The tracker validates them (advisory only), resolves the
user identity, maps the event to its canonical collector name, and sends it
over HTTP. Every tracking call returns immediately with a *transport.Call
handle; transport failures are logged and settled into the handle, never
returned as errors.

# Quick Start

	tracker, err := kepixel.New("my-app-id", kepixel.WithLogging(true))
	if err != nil {
	    log.Fatal(err) // only an empty app ID fails
	}
	defer tracker.Close(context.Background())

	tracker.TrackPurchase(event.Purchase{
	    Base:     event.Base{UserData: &event.UserData{Email: "u@example.com"}},
	    Value:    59.98,
	    Currency: "USD",
	    OrderID:  "o1",
	    Items:    []event.Item{event.NewItem("p1", "T-shirt", 29.99, 2)},
	})

# Two Wire Shapes

Named business events (TrackPurchase, TrackPageView, TrackEvent, ...) use the
structured JSON call to /v1/track with the canonical event name. Low-level
primitives (TrackAction, TrackSiteSearch, TrackLink, TrackGoal, ecommerce
cart and order, heartbeat pings) use the form-encoded beacon. Every dispatch
first issues one identify call to /v1/identify.

# Errors

Configuration errors (empty app ID, missing required parameter) are returned
synchronously. Transport errors are available only through the Call handle:

	call, err := tracker.TrackScreenView("home", nil)
	if err != nil {
	    return err // missing name
	}
	outcome, _ := call.Wait(ctx)
	if outcome.Err != nil {
	    // non-2xx status or network failure, already logged
	}

# Background Producers

EnableHeartBeatTimer sends a liveness ping while the page is visible and the
user has been idle for the active time. EnableLinkTracking classifies clicks
on anchors as outbound links or downloads. Both observe the host through an
environment.Observer supplied with WithObserver.
*/
package kepixel
