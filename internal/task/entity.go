package task

import (
	"time"

	"github.com/kev1903/skrobakios/internal/schedule"
)

// Item is one persisted WBS row. The tree is stored flat: ParentID and
// Position place the item among its siblings.
type Item struct {
	ID           string           `yaml:"id"`
	ProjectID    string           `yaml:"project_id"`
	ParentID     string           `yaml:"parent_id,omitempty"`
	Position     int              `yaml:"position"`
	Title        string           `yaml:"title"`
	Duration     int              `yaml:"duration"`
	Progress     int              `yaml:"progress"`
	StartDate    schedule.Date    `yaml:"start_date,omitempty"`
	EndDate      schedule.Date    `yaml:"end_date,omitempty"`
	NotBefore    schedule.Date    `yaml:"not_before,omitempty"`
	Expanded     bool             `yaml:"expanded"`
	Dependencies []ItemDependency `yaml:"dependencies,omitempty"`
	ExternalRef  string           `yaml:"external_ref,omitempty"`
	Version      int64            `yaml:"version"`
	CreatedAt    time.Time        `yaml:"created_at"`
	UpdatedAt    time.Time        `yaml:"updated_at"`
}

type ItemDependency struct {
	PredecessorID string                `yaml:"predecessor_id"`
	Type          schedule.Relationship `yaml:"type"`
	LagDays       int                   `yaml:"lag_days,omitempty"`
}
