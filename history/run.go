package history

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound     = errors.New("run not found")
	ErrInvalidLocation = errors.New("location is required")
	ErrInvalidStatus   = errors.New("invalid run status")
	ErrRunNotRunning   = errors.New("run is not running")
)

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusRunning, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Run is the recorded outcome of one retrieval workflow execution.
type Run struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id" yaml:"id"`
	Location     string     `gorm:"type:varchar(64);not null" json:"location" yaml:"location"`
	Status       Status     `gorm:"type:varchar(16);not null" json:"status" yaml:"status"`
	FailedState  string     `gorm:"type:varchar(32)" json:"failed_state,omitempty" yaml:"failed_state,omitempty"`
	Reason       string     `gorm:"type:varchar(64)" json:"reason,omitempty" yaml:"reason,omitempty"`
	ErrorMessage string     `gorm:"column:error_message;type:text" json:"error,omitempty" yaml:"error,omitempty"`
	ArtifactPath string     `gorm:"type:varchar(1024)" json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`
	ArtifactSize int64      `json:"artifact_size,omitempty" yaml:"artifact_size,omitempty"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at" yaml:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// TableName pins the table created by the migrations.
func (Run) TableName() string {
	return "retrieval_runs"
}

// Validate checks a run before it is stored.
func (r *Run) Validate() error {
	if r.Location == "" {
		return ErrInvalidLocation
	}
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Duration is how long a completed run took.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
