package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kev1903/skrobakios/internal/task"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/storage"
)

const tasksPrefix = "tasks"

type YAMLRepository struct {
	storage storage.Storage
	now     func() time.Time
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s, now: time.Now}
}

func dir(projectID string) string {
	return fmt.Sprintf("%s/%s", tasksPrefix, projectID)
}

func path(projectID, id string) string {
	return fmt.Sprintf("%s/%s.yaml", dir(projectID), id)
}

func (r *YAMLRepository) write(ctx context.Context, it *task.Item) error {
	data, err := yaml.Marshal(it)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, path(it.ProjectID, it.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) read(ctx context.Context, key string) (*task.Item, error) {
	data, err := r.storage.Read(ctx, key)
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	var it task.Item
	if err := yaml.Unmarshal(data, &it); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("unmarshal %s: %w", key, err))
	}
	return &it, nil
}

func (r *YAMLRepository) Create(ctx context.Context, it *task.Item) error {
	exists, err := r.storage.Exists(ctx, path(it.ProjectID, it.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
	}
	it.Version = 1
	it.Touch(r.now())
	return r.write(ctx, it)
}

func (r *YAMLRepository) Get(ctx context.Context, projectID, id string) (*task.Item, error) {
	return r.read(ctx, path(projectID, id))
}

// List returns the project's items ordered by parent then position.
func (r *YAMLRepository) List(ctx context.Context, projectID string) ([]*task.Item, error) {
	paths, err := r.storage.List(ctx, dir(projectID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}
	items := make([]*task.Item, 0, len(paths))
	for _, key := range paths {
		it, err := r.read(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable task", "path", key, "error", err)
			continue
		}
		items = append(items, it)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ParentID != items[j].ParentID {
			return items[i].ParentID < items[j].ParentID
		}
		return items[i].Position < items[j].Position
	})
	return items, nil
}

func (r *YAMLRepository) Update(ctx context.Context, it *task.Item) error {
	current, err := r.Get(ctx, it.ProjectID, it.ID)
	if err != nil {
		return err
	}
	it.CreatedAt = current.CreatedAt
	it.Version = current.Version + 1
	it.Touch(r.now())
	return r.write(ctx, it)
}

func (r *YAMLRepository) Delete(ctx context.Context, projectID, id string) error {
	if err := r.storage.Delete(ctx, path(projectID, id)); err != nil {
		return cerr.WrapStorageDeleteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) DeleteProject(ctx context.Context, projectID string) error {
	paths, err := r.storage.List(ctx, dir(projectID))
	if err != nil {
		return cerr.WrapStorageReadError("tasks", err)
	}
	var errs []error
	for _, key := range paths {
		if err := r.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return cerr.WrapStorageDeleteError("tasks", errors.Join(errs...))
	}
	return nil
}
