package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	_ Launcher = (*FakeBrowser)(nil)
	_ Session  = (*FakeSession)(nil)
)

// FakeBrowser is a scripted in-memory Launcher for tests. Every locator
// matches just enough elements for its index and every checkpoint is
// reachable unless the script says otherwise.
type FakeBrowser struct {
	// LaunchErr makes Launch fail.
	LaunchErr error

	// Matches overrides the match count of a locator, keyed by Locator.Query().
	Matches map[string]int

	// Offline URLs fail Goto with ErrNavigationTimeout.
	Offline map[string]bool

	// Unreachable checkpoints block until their timeout elapses.
	Unreachable map[string]bool

	// NoDownload makes ExpectDownload wait for its timeout.
	NoDownload bool

	// DownloadContent is written to the temporary download file.
	DownloadContent []byte

	mu       sync.Mutex
	sessions []*FakeSession
}

// Launch returns a new FakeSession.
func (b *FakeBrowser) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	if b.LaunchErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, b.LaunchErr)
	}

	s := &FakeSession{
		browser: b,
		opts:    opts,
		done:    make(chan struct{}),
		fills:   make(map[string]string),
	}

	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()

	return s, nil
}

// Launches is the number of sessions started.
func (b *FakeBrowser) Launches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Sessions returns the sessions started so far.
func (b *FakeBrowser) Sessions() []*FakeSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*FakeSession, len(b.sessions))
	copy(out, b.sessions)
	return out
}

// Running is the number of sessions not yet closed.
func (b *FakeBrowser) Running() int {
	running := 0
	for _, s := range b.Sessions() {
		if !s.Closed() {
			running++
		}
	}
	return running
}

func (b *FakeBrowser) matches(l Locator) int {
	if n, ok := b.Matches[l.Query()]; ok {
		return n
	}
	if l.Indexed {
		return l.Index + 1
	}
	return 1
}

// FakeSession records what the workflow asked of the browser.
type FakeSession struct {
	browser *FakeBrowser
	opts    LaunchOptions
	done    chan struct{}

	mu         sync.Mutex
	closed     bool
	closeCalls int
	url        string
	events     []string
	fills      map[string]string
	dir        string
}

// Goto records the navigation.
func (s *FakeSession) Goto(ctx context.Context, url string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.record("goto " + url)
	if s.browser.Offline[url] {
		return fmt.Errorf("%w: goto %s", ErrNavigationTimeout, url)
	}
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	return nil
}

// Act resolves the locator against the scripted match counts.
func (s *FakeSession) Act(ctx context.Context, in Interaction) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.record(in.String())

	if _, err := selectMatch(in.Target, s.browser.matches(in.Target)); err != nil {
		return err
	}
	if in.Action == ActionFill {
		s.mu.Lock()
		s.fills[in.Target.Query()] = in.Value
		s.mu.Unlock()
	}
	return nil
}

// WaitForCheckpoint succeeds at once unless the checkpoint is unreachable.
func (s *FakeSession) WaitForCheckpoint(ctx context.Context, checkpoint string, timeout time.Duration) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.record("await " + checkpoint)

	if s.browser.Unreachable[checkpoint] {
		if err := s.block(ctx, timeout); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrCheckpointTimeout, checkpoint)
	}

	s.mu.Lock()
	s.url = checkpoint
	s.mu.Unlock()
	return nil
}

// ExpectDownload performs the trigger and writes DownloadContent to a
// temporary file that Close removes.
func (s *FakeSession) ExpectDownload(ctx context.Context, trigger Interaction, timeout time.Duration) (Download, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	s.record("download " + trigger.String())

	if err := s.Act(ctx, trigger); err != nil {
		return nil, err
	}

	if s.browser.NoDownload {
		if err := s.block(ctx, timeout); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrDownloadTimeout, trigger)
	}

	dir, err := os.MkdirTemp("", "fake-download-*")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "download")
	if err := os.WriteFile(path, s.browser.DownloadContent, 0o600); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.dir = dir
	s.mu.Unlock()

	return fakeDownload{path: path}, nil
}

// Close releases the session and removes any temporary download.
func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeCalls++
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.dir != "" {
		return os.RemoveAll(s.dir)
	}
	return nil
}

// CloseCalls is how many times Close was invoked.
func (s *FakeSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Closed reports whether the session was closed.
func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Options returns the options the session was launched with.
func (s *FakeSession) Options() LaunchOptions {
	return s.opts
}

// URL is the last navigated or reached location.
func (s *FakeSession) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Events lists every recorded operation in order.
func (s *FakeSession) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

// HasEvent reports whether any event starts with prefix.
func (s *FakeSession) HasEvent(prefix string) bool {
	for _, e := range s.Events() {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

// Filled returns the value last filled into the element matching query.
func (s *FakeSession) Filled(query string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fills[query]
}

func (s *FakeSession) record(event string) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *FakeSession) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Closed() {
		return ErrSessionClosed
	}
	return nil
}

// block waits for timeout, returning early with an error on cancel or Close.
func (s *FakeSession) block(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

type fakeDownload struct {
	path string
}

func (d fakeDownload) Path() (string, error) {
	return d.path, nil
}

func (d fakeDownload) SuggestedFilename() string {
	return filepath.Base(d.path)
}
