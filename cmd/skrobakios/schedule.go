package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/kev1903/skrobakios/internal/projectfile"
	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/pkg/panicerr"
	"github.com/kev1903/skrobakios/pkg/sentinel"
)

type scheduleFlags struct {
	hideCompleted bool
	collapse      []string
	write         bool
	diff          bool
}

func build(p *projectfile.Project, flags scheduleFlags, opts schedule.Options) (*schedule.Snapshot, error) {
	view := schedule.View{
		Filter:   schedule.Filter{HideCompleted: flags.hideCompleted},
		Expanded: schedule.ExpandedSet(p.Roots),
	}
	for _, id := range flags.collapse {
		if schedule.Find(p.Roots, id) == nil {
			return nil, fmt.Errorf("no task with id %q", id)
		}
		delete(view.Expanded, id)
	}
	snap, err := schedule.Build(p.Roots, view, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range snap.Warnings {
		slog.Warn("dependency skipped", "task_id", w.TaskID, "predecessor_id", w.PredecessorID, "reason", w.Message)
	}
	return snap, nil
}

func runSchedule(w io.Writer, file string, flags scheduleFlags, opts schedule.Options) error {
	p, err := projectfile.Read(file)
	if err != nil {
		return err
	}
	snap, err := build(p, flags, opts)
	if err != nil {
		return err
	}
	// Collapsing is a view choice; the file keeps its own expand state.
	expanded := schedule.ExpandedSet(p.Roots)
	schedule.Walk(snap.Tree, func(t *schedule.Task, _ *schedule.Task) bool {
		t.Expanded = expanded[t.ID]
		return true
	})
	scheduled := &projectfile.Project{Name: p.Name, Roots: snap.Tree}

	if flags.diff {
		if err := printDiff(w, file, p, scheduled); err != nil {
			return err
		}
	} else {
		printRows(w, p.Name, snap)
	}
	if flags.write {
		if err := projectfile.Write(file, scheduled); err != nil {
			return err
		}
		slog.Info("project file rescheduled", "file", file)
	}
	return nil
}

var (
	headerColor   = color.New(color.Bold)
	criticalColor = color.New(color.FgRed, color.Bold)
	mutedColor    = color.New(color.Faint)
	addedColor    = color.New(color.FgGreen)
	removedColor  = color.New(color.FgRed)
)

func printRows(w io.Writer, name string, snap *schedule.Snapshot) {
	if name != "" {
		headerColor.Fprintln(w, name)
	}
	headerColor.Fprintf(w, "%4s  %-32s %5s  %-10s  %-10s  %-12s %s\n", "#", "Task", "Dur", "Start", "End", "Deps", "Float")
	for _, row := range snap.Rows {
		marker := "  "
		if row.HasChildren {
			marker = "+ "
			if row.Expanded {
				marker = "- "
			}
		}
		title := strings.Repeat("  ", row.Level) + marker + row.Title
		critical := " "
		if row.Critical {
			critical = criticalColor.Sprint("*")
		}
		fmt.Fprintf(w, "%4d %s%s %5s  %-10s  %-10s  %-12s %d\n",
			row.RowNumber,
			critical,
			taskColor(row.ID).Sprintf("%-32s", title),
			fmt.Sprintf("%dd", row.Duration),
			row.StartDate, row.EndDate,
			row.Dependencies,
			row.Float,
		)
	}
	s := snap.Stats
	mutedColor.Fprintf(w, "\n%d tasks, %d completed, %.0f%% average progress, %s .. %s\n",
		s.TotalTasks, s.CompletedTasks, s.AverageProgress, snap.Bounds.StartDate, snap.Bounds.EndDate)
}

// taskColor is the terminal colour of a task's bar colour.
func taskColor(id string) *color.Color {
	c, err := colorful.Hex(schedule.GenerateTaskColor(id).Hex())
	if err != nil {
		return color.New()
	}
	r, g, b := c.RGB255()
	return color.RGB(int(r), int(g), int(b))
}

func printDiff(w io.Writer, file string, before, after *projectfile.Project) error {
	a, err := projectfile.Marshal(before)
	if err != nil {
		return err
	}
	b, err := projectfile.Marshal(after)
	if err != nil {
		return err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: file,
		ToFile:   file + " (scheduled)",
		Context:  2,
	})
	if err != nil {
		return fmt.Errorf("failed to diff: %w", err)
	}
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			addedColor.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			removedColor.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
	return nil
}

func runWatch(ctx context.Context, w io.Writer, file string, opts schedule.Options) error {
	run := func() {
		err := panicerr.Safe(func() error {
			return runSchedule(w, file, scheduleFlags{}, opts)
		})()
		if err != nil {
			slog.Error("failed to schedule", "file", file, "error", err)
		}
	}
	run()
	s := sentinel.New(func(string) {
		fmt.Fprintln(w)
		run()
	})
	return s.Watch(ctx, file)
}
