package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrFileNotFound is returned when a requested artifact does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned when a name is empty or escapes the store root.
	ErrInvalidPath = errors.New("invalid path")
)

// ArtifactStore keeps retrieved backup files.
type ArtifactStore interface {
	// Put writes the reader's content under name, replacing any existing
	// artifact, and returns where it now lives.
	Put(ctx context.Context, name string, reader io.Reader) (string, error)

	// Exists reports whether an artifact is stored under name.
	Exists(ctx context.Context, name string) (bool, error)

	// Remove deletes the artifact stored under name.
	Remove(ctx context.Context, name string) error
}

// Settings configures NewArtifactStore.
type Settings struct {
	BaseDir string // local
	Bucket  string // s3
	Region  string // s3
	Prefix  string // s3
}

// NewArtifactStore creates an ArtifactStore of the given kind ("local" or "s3").
func NewArtifactStore(ctx context.Context, kind string, settings Settings) (ArtifactStore, error) {
	switch strings.ToLower(kind) {
	case "local":
		if settings.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStore(settings.BaseDir)

	case "s3":
		if settings.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 storage")
		}
		if settings.Region == "" {
			return nil, fmt.Errorf("region is required for S3 storage")
		}
		s, err := NewS3Store(ctx, settings.Bucket, settings.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return s.WithPrefix(settings.Prefix), nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", kind)
	}
}
