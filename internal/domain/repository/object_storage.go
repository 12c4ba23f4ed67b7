package repository

import (
	"context"
	"io"
)

// ObjectStorage is the bucket profile photos are uploaded to.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PublicURL(key string) string
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
