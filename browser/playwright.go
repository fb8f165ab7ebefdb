package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/marinxz/n-playwright-3.9/logger"
)

var (
	_ Launcher = (*PlaywrightLauncher)(nil)
	_ Session  = (*PlaywrightSession)(nil)
)

// Install downloads the playwright driver and the chromium build it drives.
func Install() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}

// PlaywrightLauncher starts chromium sessions through playwright. Every
// session gets its own driver process so concurrent runs share nothing.
type PlaywrightLauncher struct {
	logger logger.Logger
}

// NewPlaywrightLauncher creates a launcher.
func NewPlaywrightLauncher(log logger.Logger) *PlaywrightLauncher {
	return &PlaywrightLauncher{logger: log}
}

// Launch starts the driver, a chromium browser, a download-enabled context
// and one page. Cancelling ctx force-closes the returned session.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	pw, err := playwright.Run(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: start driver: %v", ErrLaunch, err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.Timeout > 0 {
		launchOpts.Timeout = playwright.Float(millis(opts.Timeout))
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: start chromium: %v", ErrLaunch, err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: new context: %v", ErrLaunch, err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: new page: %v", ErrLaunch, err)
	}

	actionTimeout := opts.ActionTimeout
	if actionTimeout <= 0 {
		actionTimeout = DefaultActionTimeout
	}
	navTimeout := opts.Timeout
	if navTimeout <= 0 {
		navTimeout = actionTimeout
	}

	s := &PlaywrightSession{
		pw:            pw,
		browser:       b,
		context:       bctx,
		page:          page,
		actionTimeout: actionTimeout,
		navTimeout:    navTimeout,
		logger:        l.logger,
	}
	s.watch(ctx, func() {
		_ = s.Close()
	})
	if err := ctx.Err(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	l.logger.Debug(ctx, "browser session launched", map[string]interface{}{
		"headless": opts.Headless,
		"version":  b.Version(),
	})

	return s, nil
}

// PlaywrightSession drives one chromium page.
type PlaywrightSession struct {
	pw            *playwright.Playwright
	browser       playwright.Browser
	context       playwright.BrowserContext
	page          playwright.Page
	actionTimeout time.Duration
	navTimeout    time.Duration
	logger        logger.Logger

	mu        sync.Mutex
	closed    bool
	downloads []playwright.Download

	stop      func() bool
	closeOnce sync.Once
	closeErr  error
}

// Goto initiates navigation to url.
func (s *PlaywrightSession) Goto(ctx context.Context, url string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.page.Goto(url, s.gotoOptions()); err != nil {
		return s.classify(err, ErrNavigationTimeout, "goto "+url)
	}
	return nil
}

// Act resolves in.Target and clicks or fills it.
func (s *PlaywrightSession) Act(ctx context.Context, in Interaction) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	target, err := s.resolve(in.Target)
	if err != nil {
		return err
	}

	if err := s.perform(target, in); err != nil {
		return s.classify(err, ErrElementNotFound, in.String())
	}
	return nil
}

// WaitForCheckpoint waits until the page URL matches checkpoint.
func (s *PlaywrightSession) WaitForCheckpoint(ctx context.Context, checkpoint string, timeout time.Duration) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	err := s.page.WaitForURL(checkpoint, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		return s.classify(err, ErrCheckpointTimeout, fmt.Sprintf("%s (page at %s)", checkpoint, s.page.URL()))
	}
	return nil
}

// ExpectDownload performs trigger and waits for the download it starts.
// The trigger is resolved before the download is awaited, so a missing or
// ambiguous element is reported as such.
func (s *PlaywrightSession) ExpectDownload(ctx context.Context, trigger Interaction, timeout time.Duration) (Download, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	target, err := s.resolve(trigger.Target)
	if err != nil {
		return nil, err
	}

	act, clicked := deferAction(func() error {
		return s.perform(target, trigger)
	})
	dl, err := s.page.ExpectDownload(act, playwright.PageExpectDownloadOptions{
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		return nil, s.downloadError(clicked.wait(s.actionTimeout), err, trigger)
	}

	s.mu.Lock()
	s.downloads = append(s.downloads, dl)
	s.mu.Unlock()

	return &playwrightDownload{download: dl}, nil
}

// Close deletes temporary downloads and shuts down context, browser and
// driver. Every step is attempted even when an earlier one fails.
func (s *PlaywrightSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		downloads := s.downloads
		s.downloads = nil
		s.mu.Unlock()

		s.unwatch()

		var errs []error
		for _, dl := range downloads {
			if err := dl.Delete(); err != nil {
				errs = append(errs, fmt.Errorf("delete download: %w", err))
			}
		}
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop driver: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func (s *PlaywrightSession) resolve(l Locator) (playwright.Locator, error) {
	all := s.page.Locator(l.Query())

	err := all.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(s.actionTimeout)),
	})
	if err != nil {
		return nil, s.classify(err, ErrElementNotFound, l.String())
	}

	count, err := all.Count()
	if err != nil {
		return nil, s.classify(err, nil, l.String())
	}

	idx, err := selectMatch(l, count)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return all, nil
	}
	return all.Nth(idx), nil
}

func (s *PlaywrightSession) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// watch force-closes the session through closeFn once ctx is done.
func (s *PlaywrightSession) watch(ctx context.Context, closeFn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = context.AfterFunc(ctx, closeFn)
}

func (s *PlaywrightSession) unwatch() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (s *PlaywrightSession) gotoOptions() playwright.PageGotoOptions {
	return playwright.PageGotoOptions{
		Timeout:   playwright.Float(millis(s.navTimeout)),
		WaitUntil: playwright.WaitUntilStateCommit,
	}
}

func (s *PlaywrightSession) perform(target playwright.Locator, in Interaction) error {
	timeout := playwright.Float(millis(s.actionTimeout))
	switch in.Action {
	case ActionClick:
		return target.Click(playwright.LocatorClickOptions{Timeout: timeout})
	case ActionFill:
		return target.Fill(in.Value, playwright.LocatorFillOptions{Timeout: timeout})
	}
	return fmt.Errorf("unsupported action %q", in.Action)
}

// downloadError reports a failed download wait. A failed trigger wins over
// the wait error it caused.
func (s *PlaywrightSession) downloadError(actErr, waitErr error, trigger Interaction) error {
	if actErr != nil {
		return s.classify(actErr, ErrElementNotFound, trigger.String())
	}
	return s.classify(waitErr, ErrDownloadTimeout, trigger.String())
}

// classify maps a playwright error onto the package taxonomy. A nil
// onTimeout leaves timeouts unclassified.
func (s *PlaywrightSession) classify(err error, onTimeout error, what string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	switch {
	case closed || errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%w: %s: %v", ErrSessionClosed, what, err)
	case onTimeout != nil && errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %s: %v", onTimeout, what, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// selectMatch decides which of count matches a locator targets. It returns
// -1 when the locator is unindexed and matched exactly once.
func selectMatch(l Locator, count int) (int, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: %s", ErrElementNotFound, l)
	}
	if l.Indexed {
		if l.Index >= count {
			return 0, fmt.Errorf("%w: %s (only %d matches)", ErrElementNotFound, l, count)
		}
		return l.Index, nil
	}
	if count > 1 {
		return 0, fmt.Errorf("%w: %s matches %d elements", ErrElementAmbiguous, l, count)
	}
	return -1, nil
}

// deferredAction runs inside a playwright expectation callback. The callback
// itself always returns nil: playwright-go hands a callback error to a
// one-slot channel that nobody drains once the waiter was rejected, so
// returning it can block forever.
type deferredAction struct {
	done chan error
}

func deferAction(act func() error) (func() error, *deferredAction) {
	d := &deferredAction{done: make(chan error, 1)}
	return func() error {
		d.done <- act()
		return nil
	}, d
}

// wait returns the action's error, or nil if it has not finished within timeout.
func (d *deferredAction) wait(timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case err := <-d.done:
		return err
	case <-t.C:
		return nil
	}
}

type playwrightDownload struct {
	download playwright.Download
}

func (d *playwrightDownload) Path() (string, error) {
	return d.download.Path()
}

func (d *playwrightDownload) SuggestedFilename() string {
	return d.download.SuggestedFilename()
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
