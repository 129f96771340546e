package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func TestNetworkTrackerIdle(t *testing.T) {
	clock := time.Unix(1000, 0)
	tracker := &networkTracker{now: func() time.Time { return clock }}
	tracker.touch()

	tracker.observe(&network.EventRequestWillBeSent{RequestID: "1"})
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "2"})
	// redirect hop for request 1 must not count twice
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "1", RedirectResponse: &network.Response{}})

	clock = clock.Add(time.Second)
	if tracker.idle(500 * time.Millisecond) {
		t.Fatal("tracker idle with requests in flight")
	}

	tracker.observe(&network.EventLoadingFinished{RequestID: "1"})
	tracker.observe(&network.EventLoadingFailed{RequestID: "2"})
	if tracker.idle(500 * time.Millisecond) {
		t.Fatal("tracker idle before the quiet window elapsed")
	}

	clock = clock.Add(600 * time.Millisecond)
	if !tracker.idle(500 * time.Millisecond) {
		t.Fatal("tracker should be idle after the quiet window")
	}
}

func TestNetworkTrackerCountNeverNegative(t *testing.T) {
	tracker := newNetworkTracker()
	tracker.observe(&network.EventLoadingFinished{RequestID: "orphan"})
	if got := tracker.inflight.Load(); got != 0 {
		t.Errorf("inflight = %d, want 0", got)
	}
}

func TestWaitIdleHonoursContext(t *testing.T) {
	tracker := newNetworkTracker()
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "long-poll"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := tracker.waitIdle(20 * time.Millisecond)(ctx); err == nil {
		t.Fatal("expected timeout while a request stays in flight")
	}
}
