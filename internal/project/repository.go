package project

import "context"

// Repository stores projects. Lookups of a missing project fail with a
// cerr.NotFound error.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	// FindByName matches the trimmed name case-insensitively.
	FindByName(ctx context.Context, name string) (*Project, error)
	// List returns one page ordered by creation time and the total count.
	List(ctx context.Context, limit, offset int) ([]*Project, int, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id string) error
}
