package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marinxz/n-playwright-3.9/logger"
)

// DefaultListLimit caps List calls that pass a non-positive limit.
const DefaultListLimit = 20

// GormStore implements Store on top of GORM.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormStore creates a GORM-backed run history.
func NewGormStore(db *gorm.DB, log logger.Logger) *GormStore {
	return &GormStore{
		db:     db,
		logger: log,
	}
}

// Start records a new running run. A zero ID or StartedAt is filled in.
func (s *GormStore) Start(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning
	run.CompletedAt = nil

	if err := run.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.Error(ctx, "failed to record run start", map[string]interface{}{
			"error":    err.Error(),
			"run_id":   run.ID.String(),
			"location": run.Location,
		})
		return err
	}
	return nil
}

// Complete applies setters to a running run and stamps its completion.
// The setters must leave the run in a terminal status.
func (s *GormStore) Complete(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if run.Status != StatusRunning {
		return ErrRunNotRunning
	}

	for _, setter := range setters {
		if err := setter(run); err != nil {
			return err
		}
	}
	if !run.Status.IsTerminal() {
		return ErrInvalidStatus
	}

	now := time.Now().UTC()
	run.CompletedAt = &now

	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		s.logger.Error(ctx, "failed to record run completion", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return err
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (s *GormStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// List returns the most recent runs first.
func (s *GormStore) List(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(normalizeLimit(limit)).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// ListByLocation returns the most recent runs of one location first.
func (s *GormStore) ListByLocation(ctx context.Context, location string, limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithContext(ctx).
		Where("location = ?", location).
		Order("started_at DESC").
		Limit(normalizeLimit(limit)).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
