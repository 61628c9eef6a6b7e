// Package projectfile reads and writes the hand-editable YAML form of a
// project schedule. Dependencies are written the way they are typed in the
// Gantt table: row numbers counted over every task in file order.
package projectfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/kev1903/skrobakios/internal/schedule"
)

type Node struct {
	ID           string        `yaml:"id,omitempty"`
	Title        string        `yaml:"title"`
	Duration     int           `yaml:"duration"`
	Progress     int           `yaml:"progress,omitempty"`
	Start        schedule.Date `yaml:"start,omitempty"`
	End          schedule.Date `yaml:"end,omitempty"`
	NotBefore    schedule.Date `yaml:"not_before,omitempty"`
	Dependencies string        `yaml:"deps,omitempty"`
	Expanded     bool          `yaml:"expanded,omitempty"`
	Children     []*Node       `yaml:"children,omitempty"`
}

type document struct {
	Name  string  `yaml:"name"`
	Tasks []*Node `yaml:"tasks"`
}

// Project is a parsed project file.
type Project struct {
	Name  string
	Roots []*schedule.Task
}

// Read loads and parses the file at path.
func Read(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a project file. Tasks without an id get a new one.
// Dependency text that names a missing row, the task itself, or closes a
// cycle is an error; unparseable tokens are dropped as in the edit field.
func Parse(data []byte) (*Project, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}

	seen := make(map[string]bool)
	texts := make(map[string]string)
	var build func(nodes []*Node) ([]*schedule.Task, error)
	build = func(nodes []*Node) ([]*schedule.Task, error) {
		out := make([]*schedule.Task, 0, len(nodes))
		for _, n := range nodes {
			t, err := n.task(seen)
			if err != nil {
				return nil, err
			}
			texts[t.ID] = n.Dependencies
			if t.Children, err = build(n.Children); err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	}
	roots, err := build(doc.Tasks)
	if err != nil {
		return nil, err
	}
	schedule.FixLevels(roots)

	rows := schedule.NumberingView(roots, schedule.Filter{})
	x := schedule.NewRowIndex(rows)
	var errs []error
	for row, t := range rows {
		text := texts[t.ID]
		if strings.TrimSpace(text) == "" {
			continue
		}
		deps := schedule.ParseDependencies(text)
		result := schedule.ValidateDependencies(roots, rows, row+1, deps)
		if !result.IsValid {
			for _, msg := range result.Messages() {
				errs = append(errs, fmt.Errorf("row %d (%s): %s", row+1, t.Title, msg))
			}
			continue
		}
		t.Dependencies, _ = schedule.ResolveRows(x, deps)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Project{Name: doc.Name, Roots: roots}, nil
}

func (n *Node) task(seen map[string]bool) (*schedule.Task, error) {
	id := strings.TrimSpace(n.ID)
	if id == "" {
		id = ulid.Make().String()
	}
	if seen[id] {
		return nil, fmt.Errorf("duplicate task id %q", id)
	}
	seen[id] = true
	if strings.TrimSpace(n.Title) == "" {
		return nil, fmt.Errorf("task %s has no title", id)
	}
	duration := n.Duration
	if duration < 1 {
		duration = 1
	}
	if n.Progress < 0 || n.Progress > 100 {
		return nil, fmt.Errorf("task %q: progress %d is outside 0-100", n.Title, n.Progress)
	}
	return &schedule.Task{
		ID:        id,
		Title:     n.Title,
		Duration:  duration,
		Progress:  n.Progress,
		StartDate: n.Start,
		EndDate:   n.End,
		NotBefore: n.NotBefore,
		Expanded:  n.Expanded,
	}, nil
}

// Marshal encodes p with dependency text numbered over the whole tree.
func Marshal(p *Project) ([]byte, error) {
	x := schedule.NewRowIndex(schedule.NumberingView(p.Roots, schedule.Filter{}))
	var nodes func(ts []*schedule.Task) []*Node
	nodes = func(ts []*schedule.Task) []*Node {
		out := make([]*Node, 0, len(ts))
		for _, t := range ts {
			out = append(out, &Node{
				ID:           t.ID,
				Title:        t.Title,
				Duration:     t.Duration,
				Progress:     t.Progress,
				Start:        t.StartDate,
				End:          t.EndDate,
				NotBefore:    t.NotBefore,
				Dependencies: schedule.DependencyText(x, t),
				Expanded:     t.Expanded,
				Children:     nodes(t.Children),
			})
		}
		return out
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&document{Name: p.Name, Tasks: nodes(p.Roots)}); err != nil {
		return nil, fmt.Errorf("failed to encode project file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode project file: %w", err)
	}
	return buf.Bytes(), nil
}

// Write replaces the file at path atomically.
func Write(path string, p *Project) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}
