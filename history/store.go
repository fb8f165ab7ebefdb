package history

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	Start(ctx context.Context, run *Run) error
	Complete(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
	ListByLocation(ctx context.Context, location string, limit int) ([]*Run, error)
}

type UpdateSetter func(*Run) error
