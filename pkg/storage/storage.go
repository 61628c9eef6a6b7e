// Package storage holds the persisted project data. Keys look like
// projects/<project id>.yaml and tasks/<project id>/<task id>.yaml.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Storage is implemented by the local directory backend and the S3 backend.
// Keys always use forward slashes whatever the backend.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the whole object at key.
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// List returns the keys one level below prefix, e.g. the task files of
	// a project for prefix tasks/<project id>.
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
