package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Store(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		region    string
		wantError bool
	}{
		{name: "valid bucket and region", bucket: "db-backups", region: "us-east-1"},
		{name: "empty bucket", bucket: "", region: "us-east-1", wantError: true},
		{name: "empty region", bucket: "db-backups", region: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Store(context.Background(), tt.bucket, tt.region)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, store.bucket)
		})
	}
}

func TestS3Store_Key(t *testing.T) {
	store := &S3Store{bucket: "db-backups"}

	tests := []struct {
		name      string
		prefix    string
		file      string
		want      string
		wantError bool
	}{
		{name: "no prefix", file: "FER.sql.gz", want: "FER.sql.gz"},
		{name: "prefix trimmed", prefix: "/ferndale/", file: "FER.sql.gz", want: "ferndale/FER.sql.gz"},
		{name: "windows separators", prefix: "detroit", file: `2024\DET.sql.gz`, want: "detroit/2024/DET.sql.gz"},
		{name: "empty name", file: "", wantError: true},
		{name: "traversal", file: "../FER.sql.gz", wantError: true},
		{name: "absolute", file: "/etc/passwd", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.WithPrefix(tt.prefix).key(tt.file)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
