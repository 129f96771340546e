package fetcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// BrowserRenderer loads a page in headless Chrome and reads document.body.innerText.
// Every call starts and tears down its own browser.
type BrowserRenderer struct {
	userAgent  string
	timeout    time.Duration
	idleWindow time.Duration
	execPath   string
}

// NewBrowserRenderer creates the headless browser strategy
func NewBrowserRenderer(userAgent string, timeout, idleWindow time.Duration, execPath string) *BrowserRenderer {
	if idleWindow <= 0 {
		idleWindow = 500 * time.Millisecond
	}
	return &BrowserRenderer{
		userAgent:  userAgent,
		timeout:    timeout,
		idleWindow: idleWindow,
		execPath:   execPath,
	}
}

func (b *BrowserRenderer) Name() string { return "browser" }

// Retrieve navigates, waits for the network to go quiet and returns the body text
func (b *BrowserRenderer) Retrieve(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(b.userAgent))
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	tracker := newNetworkTracker()
	chromedp.ListenTarget(browserCtx, tracker.observe)

	var text string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(url),
		tracker.waitIdle(b.idleWindow),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	return text, nil
}

// networkTracker counts in-flight requests from CDP network events
type networkTracker struct {
	inflight     atomic.Int64
	lastActivity atomic.Int64 // unix nanos
	now          func() time.Time
}

func newNetworkTracker() *networkTracker {
	t := &networkTracker{now: time.Now}
	t.touch()
	return t
}

func (t *networkTracker) touch() {
	t.lastActivity.Store(t.now().UnixNano())
}

func (t *networkTracker) observe(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		// a redirect reuses the request id of the hop it replaces
		if e.RedirectResponse == nil {
			t.inflight.Add(1)
		}
		t.touch()
	case *network.EventLoadingFinished, *network.EventLoadingFailed:
		if t.inflight.Add(-1) < 0 {
			t.inflight.Store(0)
		}
		t.touch()
	}
}

func (t *networkTracker) idle(window time.Duration) bool {
	if t.inflight.Load() > 0 {
		return false
	}
	last := time.Unix(0, t.lastActivity.Load())
	return t.now().Sub(last) >= window
}

// waitIdle blocks until no request has been in flight for window
func (t *networkTracker) waitIdle(window time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(window / 5)
		defer ticker.Stop()
		for {
			if t.idle(window) {
				return nil
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("waiting for network idle: %w", ctx.Err())
			case <-ticker.C:
			}
		}
	}
}
