package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marinxz/n-playwright-3.9/browser"
	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/location"
	"github.com/marinxz/n-playwright-3.9/logger"
	"github.com/marinxz/n-playwright-3.9/session"
	"github.com/marinxz/n-playwright-3.9/storage"
)

// DestinationFunc opens the store a location's artifact is relocated into.
type DestinationFunc func(dir string) (storage.ArtifactStore, error)

// LocalDestination relocates into a directory on the local filesystem.
func LocalDestination(dir string) (storage.ArtifactStore, error) {
	return storage.NewLocalStore(dir)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithDestination overrides how relocation targets are opened.
func WithDestination(fn DestinationFunc) Option {
	return func(w *Workflow) { w.destination = fn }
}

// WithArchive mirrors every relocated artifact into store.
func WithArchive(store storage.ArtifactStore) Option {
	return func(w *Workflow) { w.archive = store }
}

// WithHistory records every run in store.
func WithHistory(store history.Store) Option {
	return func(w *Workflow) { w.history = store }
}

// WithRegistry exposes live sessions to reg for force-closing.
func WithRegistry(reg *session.Registry) Option {
	return func(w *Workflow) { w.registry = reg }
}

// Workflow retrieves the backup of one location per Run call. A Workflow
// holds no per-run state and may run several locations concurrently.
type Workflow struct {
	launcher    browser.Launcher
	logger      logger.Logger
	destination DestinationFunc
	archive     storage.ArtifactStore
	history     history.Store
	registry    *session.Registry
}

// NewWorkflow creates a workflow driving sessions from launcher.
func NewWorkflow(launcher browser.Launcher, log logger.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		launcher:    launcher,
		logger:      log,
		destination: LocalDestination,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the retrieval state machine for cfg. It never returns an
// error: every failure, including a panic, becomes an unsuccessful Result,
// and the browser session is closed before Run returns. A nil cfg fails
// validation.
func (w *Workflow) Run(ctx context.Context, cfg *location.Config) (result Result) {
	if cfg == nil {
		cfg = &location.Config{}
	}
	result = Result{
		Location:  cfg.Name,
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	log := w.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID.String(),
		"location": cfg.Name,
	})

	w.recordStart(ctx, log, result)
	log.Info(ctx, "backup retrieval started", nil)

	r := &run{
		workflow: w,
		cfg:      cfg,
		plan:     NewPlan(cfg),
		log:      log,
		runID:    result.RunID,
		state:    StateStart,
	}

	defer func() {
		if p := recover(); p != nil {
			r.err = &StepError{State: r.state, Err: fmt.Errorf("%w: %v", ErrUnexpected, p)}
		}

		result.Duration = time.Since(result.StartedAt)
		if r.err != nil {
			result.FailedState = r.state
			result.Err = r.err
			w.logFailure(ctx, log, result)
		} else {
			result.Success = true
			result.ArtifactPath = r.artifactPath
			result.Size = r.size
			result.ArchivedAt = r.archivedAt
			log.Info(ctx, "backup retrieval succeeded", map[string]interface{}{
				"artifact_path": result.ArtifactPath,
				"size":          result.Size,
				"duration":      result.Duration.String(),
			})
		}
		w.recordCompletion(ctx, log, result)
	}()

	r.err = r.execute(ctx)
	return result
}

func (w *Workflow) logFailure(ctx context.Context, log logger.Logger, result Result) {
	fields := map[string]interface{}{
		"state":    string(result.FailedState),
		"reason":   result.Reason(),
		"error":    result.Err.Error(),
		"duration": result.Duration.String(),
	}
	if errors.Is(result.Err, browser.ErrCheckpointTimeout) {
		log.Error(ctx, "checkpoint not reached, the console UI may have changed or slowed down", fields)
		return
	}
	log.Error(ctx, "backup retrieval failed", fields)
}

func (w *Workflow) recordStart(ctx context.Context, log logger.Logger, result Result) {
	if w.history == nil {
		return
	}
	err := w.history.Start(ctx, &history.Run{
		ID:        result.RunID,
		Location:  result.Location,
		StartedAt: result.StartedAt,
	})
	if err != nil {
		log.Warn(ctx, "failed to record run start", map[string]interface{}{"error": err.Error()})
	}
}

func (w *Workflow) recordCompletion(ctx context.Context, log logger.Logger, result Result) {
	if w.history == nil {
		return
	}
	// The run context may already be cancelled; the record must still land.
	ctx = context.WithoutCancel(ctx)

	var setters []history.UpdateSetter
	if result.Success {
		setters = append(setters,
			history.SetStatus(history.StatusSuccess),
			history.SetArtifact(result.ArtifactPath, result.Size),
		)
	} else {
		setters = append(setters,
			history.SetFailure(string(result.FailedState), result.Reason(), result.Err.Error()),
		)
	}
	if err := w.history.Complete(ctx, result.RunID, setters...); err != nil {
		log.Warn(ctx, "failed to record run completion", map[string]interface{}{"error": err.Error()})
	}
}

// run holds the state of one Run call.
type run struct {
	workflow *Workflow
	cfg      *location.Config
	plan     Plan
	log      logger.Logger
	runID    uuid.UUID

	state        State
	err          error
	artifactPath string
	size         int64
	archivedAt   string
}

func (r *run) execute(ctx context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		return r.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	s, err := r.workflow.launcher.Launch(ctx, browser.LaunchOptions{
		Headless:      r.cfg.Headless,
		Timeout:       r.cfg.Timeout,
		ActionTimeout: r.cfg.ActionTimeout,
	})
	if err != nil {
		return r.fail(err)
	}
	if r.workflow.registry != nil {
		untrack := r.workflow.registry.Track(r.runID, r.cfg.Name, s)
		defer untrack()
	}
	defer func() {
		if err := s.Close(); err != nil {
			r.log.Warn(ctx, "failed to close browser session", map[string]interface{}{"error": err.Error()})
		}
	}()

	for _, step := range r.plan.Navigation {
		if err := r.step(ctx, s, step); err != nil {
			return err
		}
	}

	downloaded, err := r.download(ctx, s)
	if err != nil {
		return err
	}

	r.enter(ctx, StateValidating)
	size, err := validateDownload(downloaded)
	if err != nil {
		return r.fail(err)
	}

	r.enter(ctx, StateRelocating)
	artifact, err := r.relocate(ctx, downloaded)
	if err != nil {
		return r.fail(err)
	}
	r.archive(ctx, artifact)

	if err := r.step(ctx, s, r.plan.Logout); err != nil {
		return err
	}

	r.enter(ctx, StateDone)
	r.artifactPath = artifact
	r.size = size
	return nil
}

func (r *run) step(ctx context.Context, s browser.Session, step Step) error {
	r.enter(ctx, step.State)

	if step.Goto != "" {
		if err := s.Goto(ctx, step.Goto); err != nil {
			return r.fail(err)
		}
	}
	for _, in := range step.Interactions {
		if err := s.Act(ctx, in); err != nil {
			return r.fail(err)
		}
	}
	if step.Checkpoint != "" {
		if err := s.WaitForCheckpoint(ctx, step.Checkpoint, r.cfg.Timeout); err != nil {
			return r.fail(err)
		}
	}
	return nil
}

func (r *run) download(ctx context.Context, s browser.Session) (string, error) {
	r.enter(ctx, StateDownloading)

	dl, err := s.ExpectDownload(ctx, r.plan.Download, r.cfg.DownloadTimeout)
	if err != nil {
		return "", r.fail(err)
	}
	p, err := dl.Path()
	if err != nil {
		return "", r.fail(fmt.Errorf("download did not complete: %w", err))
	}

	r.log.Info(ctx, "file downloaded", map[string]interface{}{
		"path":               p,
		"suggested_filename": dl.SuggestedFilename(),
	})
	return p, nil
}

func (r *run) relocate(ctx context.Context, src string) (string, error) {
	dest, err := r.workflow.destination(r.cfg.FileDestinationPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelocation, err)
	}

	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelocation, err)
	}
	defer f.Close()

	artifact, err := dest.Put(ctx, r.cfg.FileName, f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRelocation, err)
	}

	r.log.Info(ctx, "artifact copied to destination", map[string]interface{}{
		"artifact_path": artifact,
	})
	return artifact, nil
}

// archive mirrors the relocated artifact. Failures only warn: the
// destination already holds the file.
func (r *run) archive(ctx context.Context, artifact string) {
	if r.workflow.archive == nil {
		return
	}

	prefix := r.cfg.ArchivePrefix
	if prefix == "" {
		prefix = strings.ToLower(r.cfg.Name)
	}

	f, err := os.Open(artifact)
	if err != nil {
		r.log.Warn(ctx, "failed to archive artifact", map[string]interface{}{"error": err.Error()})
		return
	}
	defer f.Close()

	where, err := r.workflow.archive.Put(ctx, path.Join(prefix, r.cfg.FileName), f)
	if err != nil {
		r.log.Warn(ctx, "failed to archive artifact", map[string]interface{}{"error": err.Error()})
		return
	}
	r.archivedAt = where
	r.log.Info(ctx, "artifact archived", map[string]interface{}{"archived_at": where})
}

func (r *run) enter(ctx context.Context, state State) {
	r.state = state
	r.log.Debug(ctx, "entering state", map[string]interface{}{"state": string(state)})
}

func (r *run) fail(err error) error {
	return &StepError{State: r.state, Err: err}
}

// validateDownload requires a regular, non-empty file.
func validateDownload(p string) (int64, error) {
	info, err := os.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s is not a regular file", ErrValidation, p)
	}
	if info.Size() <= 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrValidation, p)
	}
	return info.Size(), nil
}
