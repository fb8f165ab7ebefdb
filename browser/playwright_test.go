package browser

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPage implements the parts of playwright.Page the session touches.
type stubPage struct {
	playwright.Page

	locator     *stubLocator
	gotoErr     error
	gotoOpts    []playwright.PageGotoOptions
	downloadErr error
	expects     int
	callbackErr error
}

func (p *stubPage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return p.locator
}

func (p *stubPage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.gotoOpts = append(p.gotoOpts, options...)
	return nil, p.gotoErr
}

func (p *stubPage) ExpectDownload(cb func() error, options ...playwright.PageExpectDownloadOptions) (playwright.Download, error) {
	p.expects++
	p.callbackErr = cb()
	return nil, p.downloadErr
}

// locatorIface aliases playwright.Locator so embedding it does not create a
// field named Locator that would shadow the interface's Locator method.
type locatorIface = playwright.Locator

type stubLocator struct {
	locatorIface

	count    int
	clickErr error
	clicks   int
}

func (l *stubLocator) First() playwright.Locator { return l }

func (l *stubLocator) Nth(int) playwright.Locator { return l }

func (l *stubLocator) WaitFor(...playwright.LocatorWaitForOptions) error {
	if l.count == 0 {
		return fmt.Errorf("locator.waitFor: %w", playwright.ErrTimeout)
	}
	return nil
}

func (l *stubLocator) Count() (int, error) { return l.count, nil }

func (l *stubLocator) Click(...playwright.LocatorClickOptions) error {
	l.clicks++
	return l.clickErr
}

func TestPlaywrightSession_Classify(t *testing.T) {
	timeout := fmt.Errorf("locator.click: %w", playwright.ErrTimeout)

	tests := []struct {
		name      string
		closed    bool
		err       error
		onTimeout error
		want      error
	}{
		{name: "checkpoint timeout", err: timeout, onTimeout: ErrCheckpointTimeout, want: ErrCheckpointTimeout},
		{name: "download timeout", err: timeout, onTimeout: ErrDownloadTimeout, want: ErrDownloadTimeout},
		{name: "navigation timeout", err: timeout, onTimeout: ErrNavigationTimeout, want: ErrNavigationTimeout},
		{name: "unclassified timeout", err: timeout, want: playwright.ErrTimeout},
		{name: "target closed", err: playwright.ErrTargetClosed, onTimeout: ErrDownloadTimeout, want: ErrSessionClosed},
		{name: "closed session", closed: true, err: timeout, onTimeout: ErrCheckpointTimeout, want: ErrSessionClosed},
		{name: "other error", err: errors.New("net::ERR_NAME_NOT_RESOLVED"), onTimeout: ErrNavigationTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &PlaywrightSession{closed: tt.closed}

			got := s.classify(tt.err, tt.onTimeout, "text=Export")

			require.Error(t, got)
			assert.Contains(t, got.Error(), "text=Export")
			if tt.want != nil {
				assert.ErrorIs(t, got, tt.want)
			}
			for _, sentinel := range []error{ErrCheckpointTimeout, ErrDownloadTimeout, ErrNavigationTimeout, ErrSessionClosed} {
				if sentinel != tt.want {
					assert.NotErrorIs(t, got, sentinel)
				}
			}
		})
	}
}

func TestPlaywrightSession_Goto(t *testing.T) {
	page := &stubPage{gotoErr: fmt.Errorf("page.goto: %w", playwright.ErrTimeout)}
	s := &PlaywrightSession{page: page, navTimeout: 5 * time.Second}

	err := s.Goto(context.Background(), "https://console.example.com/login")
	assert.ErrorIs(t, err, ErrNavigationTimeout)

	require.Len(t, page.gotoOpts, 1)
	assert.Equal(t, 5000.0, *page.gotoOpts[0].Timeout)
	assert.Equal(t, playwright.WaitUntilStateCommit, page.gotoOpts[0].WaitUntil)
}

func TestPlaywrightSession_ExpectDownload(t *testing.T) {
	trigger := Click(CSS("button.download"))

	tests := []struct {
		name        string
		closed      bool
		locator     *stubLocator
		downloadErr error
		want        error
		expects     int
		clicks      int
	}{
		{
			name:    "trigger missing",
			locator: &stubLocator{count: 0},
			want:    ErrElementNotFound,
		},
		{
			name:    "trigger ambiguous",
			locator: &stubLocator{count: 2},
			want:    ErrElementAmbiguous,
		},
		{
			name:        "click fails",
			locator:     &stubLocator{count: 1, clickErr: fmt.Errorf("locator.click: %w", playwright.ErrTimeout)},
			downloadErr: fmt.Errorf("waiting for download: %w", playwright.ErrTimeout),
			want:        ErrElementNotFound,
			expects:     1,
			clicks:      1,
		},
		{
			name:        "download never starts",
			locator:     &stubLocator{count: 1},
			downloadErr: fmt.Errorf("waiting for download: %w", playwright.ErrTimeout),
			want:        ErrDownloadTimeout,
			expects:     1,
			clicks:      1,
		},
		{
			name:        "page closed while waiting",
			locator:     &stubLocator{count: 1},
			downloadErr: playwright.ErrTargetClosed,
			want:        ErrSessionClosed,
			expects:     1,
			clicks:      1,
		},
		{
			name:    "session closed",
			closed:  true,
			locator: &stubLocator{count: 1},
			want:    ErrSessionClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &stubPage{locator: tt.locator, downloadErr: tt.downloadErr}
			s := &PlaywrightSession{page: page, actionTimeout: time.Second, closed: tt.closed}

			dl, err := s.ExpectDownload(context.Background(), trigger, time.Second)

			assert.Nil(t, dl)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.expects, page.expects)
			assert.Equal(t, tt.clicks, tt.locator.clicks)
			assert.NoError(t, page.callbackErr)
		})
	}
}

func TestPlaywrightSession_DownloadError(t *testing.T) {
	s := &PlaywrightSession{}
	trigger := Click(CSS("button.download"))
	waitTimeout := fmt.Errorf("waiting for download: %w", playwright.ErrTimeout)

	err := s.downloadError(fmt.Errorf("locator.click: %w", playwright.ErrTimeout), waitTimeout, trigger)
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.NotErrorIs(t, err, ErrDownloadTimeout)

	err = s.downloadError(nil, waitTimeout, trigger)
	assert.ErrorIs(t, err, ErrDownloadTimeout)

	err = s.downloadError(playwright.ErrTargetClosed, waitTimeout, trigger)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestDeferAction(t *testing.T) {
	boom := errors.New("boom")
	act, d := deferAction(func() error { return boom })

	assert.NoError(t, act())
	assert.ErrorIs(t, d.wait(time.Second), boom)

	_, idle := deferAction(func() error { return boom })
	assert.NoError(t, idle.wait(10*time.Millisecond))
}

func TestPlaywrightSession_WatchClosesOnCancel(t *testing.T) {
	s := &PlaywrightSession{}
	ctx, cancel := context.WithCancel(context.Background())

	fired := make(chan struct{})
	s.watch(ctx, func() {
		s.unwatch()
		close(fired)
	})
	cancel()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("cancel did not trigger the close function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Nil(t, s.stop)
}

func TestPlaywrightSession_WatchCancelledContext(t *testing.T) {
	s := &PlaywrightSession{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fired := make(chan struct{})
	s.watch(ctx, func() {
		s.unwatch()
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("cancelled context did not trigger the close function")
	}
}

func TestPlaywrightSession_Unwatch(t *testing.T) {
	s := &PlaywrightSession{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Bool
	s.watch(ctx, func() { fired.Store(true) })
	s.unwatch()
	s.unwatch()
	cancel()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, fired.Load())
}
