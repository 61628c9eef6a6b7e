// Package schedule is the WBS scheduling engine behind the Gantt view: tree
// flattening and row numbering, dependency text encoding and validation,
// date propagation, critical path analysis, timeline geometry and roll-up
// statistics.
//
// Dependencies are stored on tasks by predecessor id. Row numbers only appear
// in the human-editable dependency text and are translated at the codec
// boundary against the current numbering view.
package schedule

import (
	"fmt"
	"strings"
)

// Relationship is the kind of link between a predecessor and its successor.
type Relationship int

const (
	FinishToStart Relationship = iota
	StartToStart
	FinishToFinish
	StartToFinish
)

var relationshipCodes = map[Relationship]string{
	FinishToStart:  "FS",
	StartToStart:   "SS",
	FinishToFinish: "FF",
	StartToFinish:  "SF",
}

func (r Relationship) String() string {
	if c, ok := relationshipCodes[r]; ok {
		return c
	}
	return fmt.Sprintf("Relationship(%d)", int(r))
}

func (r Relationship) IsValid() bool {
	_, ok := relationshipCodes[r]
	return ok
}

// ParseRelationship accepts the two-letter code in any case.
func ParseRelationship(s string) (Relationship, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	for r, c := range relationshipCodes {
		if c == code {
			return r, true
		}
	}
	return FinishToStart, false
}

func (r Relationship) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid relationship %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Relationship) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = FinishToStart
		return nil
	}
	parsed, ok := ParseRelationship(string(b))
	if !ok {
		return fmt.Errorf("unknown relationship %q", string(b))
	}
	*r = parsed
	return nil
}

// Dependency links a task to one of its predecessors by stable id.
type Dependency struct {
	PredecessorID string       `json:"predecessor_id" yaml:"predecessor_id"`
	Relationship  Relationship `json:"type" yaml:"type"`
	LagDays       int          `json:"lag_days,omitempty" yaml:"lag_days,omitempty"`
}

// BarStyle is the cached geometry of a task's bar on the timeline.
type BarStyle struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

// Task is one node of the work breakdown structure.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Duration     int          `json:"duration"`
	Progress     int          `json:"progress"`
	StartDate    Date         `json:"start_date"`
	EndDate      Date         `json:"end_date"`
	NotBefore    Date         `json:"not_before,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Level        int          `json:"level"`
	Children     []*Task      `json:"children,omitempty"`
	RowNumber    int          `json:"row_number"`
	Expanded     bool         `json:"expanded"`
	Bar          BarStyle     `json:"bar"`
	ExternalRef  string       `json:"external_ref,omitempty"`
}

func (t *Task) HasChildren() bool {
	return len(t.Children) > 0
}

func (t *Task) IsCompleted() bool {
	return t.Progress >= 100
}

// HasDates reports whether both start and end are set.
func (t *Task) HasDates() bool {
	return !t.StartDate.IsZero() && !t.EndDate.IsZero()
}

// IsConsistent reports whether the dates agree with the duration.
func (t *Task) IsConsistent(cal Calendar) bool {
	if !t.HasDates() || t.EndDate.Before(t.StartDate) {
		return false
	}
	return cal.Span(t.StartDate, t.EndDate) == t.Duration
}

// Clone returns a deep copy of t and its subtree.
func (t *Task) Clone() *Task {
	c := *t
	if t.Dependencies != nil {
		c.Dependencies = make([]Dependency, len(t.Dependencies))
		copy(c.Dependencies, t.Dependencies)
	}
	if t.Children != nil {
		c.Children = make([]*Task, len(t.Children))
		for i, child := range t.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// CloneTree deep-copies a forest.
func CloneTree(roots []*Task) []*Task {
	out := make([]*Task, len(roots))
	for i, r := range roots {
		out[i] = r.Clone()
	}
	return out
}

// Walk visits every task depth-first, parents before children. Returning
// false from fn stops descent into that task's children.
func Walk(roots []*Task, fn func(t *Task, parent *Task) bool) {
	var walk func(ts []*Task, parent *Task)
	walk = func(ts []*Task, parent *Task) {
		for _, t := range ts {
			if fn(t, parent) {
				walk(t.Children, t)
			}
		}
	}
	walk(roots, nil)
}

// Index maps every task id in the forest to its task.
func Index(roots []*Task) map[string]*Task {
	idx := make(map[string]*Task)
	Walk(roots, func(t *Task, _ *Task) bool {
		idx[t.ID] = t
		return true
	})
	return idx
}

func Find(roots []*Task, id string) *Task {
	var found *Task
	Walk(roots, func(t *Task, _ *Task) bool {
		if found != nil {
			return false
		}
		if t.ID == id {
			found = t
			return false
		}
		return true
	})
	return found
}

// FindParent returns the parent of the task with id, or nil for roots and
// unknown ids.
func FindParent(roots []*Task, id string) *Task {
	var parent *Task
	Walk(roots, func(t *Task, p *Task) bool {
		if t.ID == id {
			parent = p
		}
		return parent == nil
	})
	return parent
}

// Remove deletes the task with id (and its subtree) from the forest and
// drops dependencies that pointed into the removed subtree.
func Remove(roots []*Task, id string) ([]*Task, bool) {
	removed := make(map[string]bool)
	var prune func(ts []*Task) []*Task
	prune = func(ts []*Task) []*Task {
		out := ts[:0]
		for _, t := range ts {
			if t.ID == id {
				for k := range Index([]*Task{t}) {
					removed[k] = true
				}
				continue
			}
			t.Children = prune(t.Children)
			out = append(out, t)
		}
		return out
	}
	roots = prune(roots)
	if len(removed) == 0 {
		return roots, false
	}
	Walk(roots, func(t *Task, _ *Task) bool {
		kept := t.Dependencies[:0]
		for _, d := range t.Dependencies {
			if !removed[d.PredecessorID] {
				kept = append(kept, d)
			}
		}
		t.Dependencies = kept
		return true
	})
	return roots, true
}

// FixLevels rewrites Level from each task's depth in the forest.
func FixLevels(roots []*Task) {
	Walk(roots, func(t *Task, parent *Task) bool {
		if parent == nil {
			t.Level = 0
		} else {
			t.Level = parent.Level + 1
		}
		return true
	})
}

// ExpandedSet collects the ids of tasks whose Expanded flag is set.
func ExpandedSet(roots []*Task) map[string]bool {
	set := make(map[string]bool)
	Walk(roots, func(t *Task, _ *Task) bool {
		if t.Expanded {
			set[t.ID] = true
		}
		return true
	})
	return set
}
