package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one run. ArtifactPath is set iff Success.
type Result struct {
	Location string
	RunID    uuid.UUID

	Success      bool
	ArtifactPath string
	Size         int64

	// ArchivedAt is where the archive mirror put the artifact, if anywhere.
	ArchivedAt string

	FailedState State
	Err         error

	StartedAt time.Time
	Duration  time.Duration
}

// Reason labels the failure, empty on success.
func (r Result) Reason() string {
	return Reason(r.Err)
}
