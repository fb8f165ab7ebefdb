package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marinxz/n-playwright-3.9/browser"
	"github.com/marinxz/n-playwright-3.9/logger"
)

// Entry is a live browser session owned by one workflow run.
type Entry struct {
	RunID     uuid.UUID
	Location  string
	StartedAt time.Time
	session   browser.Session
}

// Registry tracks the browser sessions of in-flight runs so they can be
// force-closed from outside the run, e.g. on SIGINT.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
	logger  logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*Entry),
		logger:  log,
	}
}

// Track registers s under runID and returns the func that removes it again.
func (r *Registry) Track(runID uuid.UUID, location string, s browser.Session) func() {
	r.mu.Lock()
	r.entries[runID] = &Entry{
		RunID:     runID,
		Location:  location,
		StartedAt: time.Now(),
		session:   s,
	}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.entries, runID)
		r.mu.Unlock()
	}
}

// Live returns a snapshot of the tracked entries.
func (r *Registry) Live() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}

// Len is the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll force-closes every tracked session and forgets it. Sessions are
// closed outside the lock because Close may block on the engine.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for id, e := range r.entries {
		entries = append(entries, e)
		delete(r.entries, id)
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		r.logger.Warn(ctx, "force-closing browser session", map[string]interface{}{
			"run_id":   e.RunID.String(),
			"location": e.Location,
		})
		if err := e.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session for %s: %w", e.Location, err))
		}
	}

	if len(entries) > 0 {
		r.logger.Info(ctx, "closed live browser sessions", map[string]interface{}{
			"closed_count": len(entries),
		})
	}
	return errors.Join(errs...)
}
