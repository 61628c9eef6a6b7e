package task

import (
	"sort"
	"time"

	"github.com/kev1903/skrobakios/internal/schedule"
)

// BuildTree assembles the flat items of one project into a forest ordered by
// Position. Items whose parent is missing become roots.
func BuildTree(items []*Item) []*schedule.Task {
	byID := make(map[string]*Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := append([]*Item(nil), items...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID < ordered[j].ID
	})

	nodes := make(map[string]*schedule.Task, len(items))
	for _, it := range ordered {
		nodes[it.ID] = ToTask(it)
	}
	var roots []*schedule.Task
	for _, it := range ordered {
		node := nodes[it.ID]
		parent, ok := nodes[it.ParentID]
		if it.ParentID == "" || !ok || it.ParentID == it.ID || createsLoop(byID, it) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	schedule.FixLevels(roots)
	return roots
}

// createsLoop reports whether following parents from it leads back to it.
// An item below a loop it is not part of keeps its parent.
func createsLoop(byID map[string]*Item, it *Item) bool {
	seen := map[string]bool{}
	for p := byID[it.ParentID]; p != nil; p = byID[p.ParentID] {
		if p.ID == it.ID {
			return true
		}
		if seen[p.ID] {
			return false
		}
		seen[p.ID] = true
	}
	return false
}

// ToTask converts one item to a childless tree node.
func ToTask(it *Item) *schedule.Task {
	t := &schedule.Task{
		ID:          it.ID,
		Title:       it.Title,
		Duration:    it.Duration,
		Progress:    it.Progress,
		StartDate:   it.StartDate,
		EndDate:     it.EndDate,
		NotBefore:   it.NotBefore,
		Expanded:    it.Expanded,
		ExternalRef: it.ExternalRef,
	}
	for _, d := range it.Dependencies {
		t.Dependencies = append(t.Dependencies, schedule.Dependency{
			PredecessorID: d.PredecessorID,
			Relationship:  d.Type,
			LagDays:       d.LagDays,
		})
	}
	return t
}

// ItemsFromTree flattens a forest into items, assigning ParentID and
// Position from the tree shape.
func ItemsFromTree(projectID string, roots []*schedule.Task) []*Item {
	var items []*Item
	var visit func(ts []*schedule.Task, parentID string)
	visit = func(ts []*schedule.Task, parentID string) {
		for i, t := range ts {
			it := FromTask(projectID, t)
			it.ParentID = parentID
			it.Position = i
			items = append(items, it)
			visit(t.Children, t.ID)
		}
	}
	visit(roots, "")
	return items
}

// FromTask converts one tree node. ParentID and Position are left zero.
func FromTask(projectID string, t *schedule.Task) *Item {
	it := &Item{
		ID:          t.ID,
		ProjectID:   projectID,
		Title:       t.Title,
		Duration:    t.Duration,
		Progress:    t.Progress,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		NotBefore:   t.NotBefore,
		Expanded:    t.Expanded,
		ExternalRef: t.ExternalRef,
	}
	it.Dependencies = DependenciesFrom(t.Dependencies)
	return it
}

func DependenciesFrom(deps []schedule.Dependency) []ItemDependency {
	if len(deps) == 0 {
		return nil
	}
	out := make([]ItemDependency, len(deps))
	for i, d := range deps {
		out[i] = ItemDependency{PredecessorID: d.PredecessorID, Type: d.Relationship, LagDays: d.LagDays}
	}
	return out
}

// Touch stamps the timestamps of a new or changed item.
func (it *Item) Touch(now time.Time) {
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
}
