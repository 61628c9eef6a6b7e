package task

import "context"

type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, projectID, id string) (*Item, error)
	List(ctx context.Context, projectID string) ([]*Item, error)
	// Update bumps Version and UpdatedAt on the stored item.
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, projectID, id string) error
	DeleteProject(ctx context.Context, projectID string) error
}
