package repositoryimpl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kev1903/skrobakios/internal/project"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/storage"
)

const projectsPrefix = "projects"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", projectsPrefix, id)
}

func (r *YAMLRepository) write(ctx context.Context, p *project.Project) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("marshal project: %w", err))
	}
	if err := r.storage.Write(ctx, path(p.ID), data); err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	return nil
}

func (r *YAMLRepository) read(ctx context.Context, key string) (*project.Project, error) {
	data, err := r.storage.Read(ctx, key)
	if err != nil {
		return nil, cerr.WrapStorageReadError("project", err)
	}
	var p project.Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("unmarshal %s: %w", key, err))
	}
	return &p, nil
}

// readAll loads every project, skipping files that cannot be read.
func (r *YAMLRepository) readAll(ctx context.Context) ([]*project.Project, error) {
	paths, err := r.storage.List(ctx, projectsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("projects", err)
	}
	projects := make([]*project.Project, 0, len(paths))
	for _, key := range paths {
		p, err := r.read(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable project", "path", key, "error", err)
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (r *YAMLRepository) Create(ctx context.Context, p *project.Project) error {
	exists, err := r.storage.Exists(ctx, path(p.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "project already exists", nil)
	}
	return r.write(ctx, p)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	return r.read(ctx, path(id))
}

func (r *YAMLRepository) FindByName(ctx context.Context, name string) (*project.Project, error) {
	projects, err := r.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, "project not found", nil)
}

// List orders projects by creation time, oldest first.
func (r *YAMLRepository) List(ctx context.Context, limit, offset int) ([]*project.Project, int, error) {
	projects, err := r.readAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.Before(projects[j].CreatedAt)
		}
		return projects[i].ID < projects[j].ID
	})
	total := len(projects)
	if offset >= total {
		return nil, total, nil
	}
	projects = projects[offset:]
	if limit > 0 && len(projects) > limit {
		projects = projects[:limit]
	}
	return projects, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, p *project.Project) error {
	exists, err := r.storage.Exists(ctx, path(p.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("project", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "project not found", nil)
	}
	return r.write(ctx, p)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("project", err)
	}
	return nil
}
