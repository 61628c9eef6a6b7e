// Package session holds one open project: the scheduled task tree and the
// edits that are still on their way to the task store. Row filters belong to
// each caller and are passed in with every request, so one viewer hiding
// completed work never renumbers the rows another viewer edits against.
//
// Every edit is applied to a copy of the tree, rescheduled and swapped in
// synchronously. The store write happens afterwards on a worker pool and
// never rewinds the local schedule.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc"

	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/internal/task"
	"github.com/kev1903/skrobakios/pkg/cerr"
)

type Options struct {
	Schedule        schedule.Options
	SaveConcurrency int
}

type Session struct {
	projectID string
	repo      task.Repository
	bus       *eventbus.Bus
	opts      Options
	scheduler *schedule.Scheduler
	saves     *conc.WaitGroup

	mu       sync.Mutex
	roots    []*schedule.Task
	clock    int64
	pending  map[string]*intent
	inflight map[string]bool
}

func New(projectID string, repo task.Repository, bus *eventbus.Bus, opts Options) *Session {
	if opts.SaveConcurrency < 1 {
		opts.SaveConcurrency = 1
	}
	return &Session{
		projectID: projectID,
		repo:      repo,
		bus:       bus,
		opts:      opts,
		scheduler: schedule.NewScheduler(opts.Schedule.Calendar),
		saves:     conc.NewWaitGroup(),
		pending:   make(map[string]*intent),
		inflight:  make(map[string]bool),
	}
}

func (s *Session) ProjectID() string {
	return s.projectID
}

// Snapshot builds the derived schedule as seen through filter.
func (s *Session) Snapshot(filter schedule.Filter) (*schedule.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(filter)
}

// SnapshotWidth is Snapshot with bar geometry in pixels of a timeline
// totalWidth wide.
func (s *Session) SnapshotWidth(filter schedule.Filter, totalWidth float64) (*schedule.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := s.opts.Schedule
	opts.TimelineWidth = totalWidth
	return s.build(filter, opts)
}

func (s *Session) snapshotLocked(filter schedule.Filter) (*schedule.Snapshot, error) {
	return s.build(filter, s.opts.Schedule)
}

func (s *Session) build(filter schedule.Filter, opts schedule.Options) (*schedule.Snapshot, error) {
	snap, err := schedule.Build(s.roots, schedule.View{
		Filter:   filter,
		Expanded: schedule.ExpandedSet(s.roots),
	}, opts)
	if err != nil {
		return nil, cerr.NewError(cerr.FailedPrecondition, "schedule cannot be built", err)
	}
	return snap, nil
}

// Tree returns a copy of the current forest.
func (s *Session) Tree() []*schedule.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.CloneTree(s.roots)
}

// Edit is a set of field changes to one task, applied together. Nil fields
// are left alone. An end date edit recomputes the duration.
//
// Filter is the view the caller sees: dependency text is numbered against
// it and the returned schedule is built with it. It is not a field change.
type Edit struct {
	schedule.Filter
	Title        *string        `json:"title,omitempty"`
	Duration     *int           `json:"duration,omitempty"`
	Progress     *int           `json:"progress,omitempty"`
	StartDate    *schedule.Date `json:"start_date,omitempty"`
	EndDate      *schedule.Date `json:"end_date,omitempty"`
	Dependencies *string        `json:"dependencies,omitempty"`
}

func (e Edit) IsEmpty() bool {
	e.Filter = schedule.Filter{}
	return e == Edit{}
}

func (s *Session) SetTitle(ctx context.Context, id, title string) (*schedule.Snapshot, error) {
	return s.Update(ctx, id, Edit{Title: &title})
}

func (s *Session) SetDuration(ctx context.Context, id string, days int) (*schedule.Snapshot, error) {
	return s.Update(ctx, id, Edit{Duration: &days})
}

func (s *Session) SetProgress(ctx context.Context, id string, progress int) (*schedule.Snapshot, error) {
	return s.Update(ctx, id, Edit{Progress: &progress})
}

// SetStartDate pins the task's start. Dependencies may still push it later;
// a zero date removes the pin.
func (s *Session) SetStartDate(ctx context.Context, id string, start schedule.Date) (*schedule.Snapshot, error) {
	return s.Update(ctx, id, Edit{StartDate: &start})
}

func (s *Session) SetEndDate(ctx context.Context, id string, end schedule.Date) (*schedule.Snapshot, error) {
	return s.Update(ctx, id, Edit{EndDate: &end})
}

// SetDependencies replaces the task's dependencies from edit-field text
// written against the unfiltered row numbering.
func (s *Session) SetDependencies(ctx context.Context, id, text string) (*schedule.Snapshot, error) {
	return s.Update(ctx, id, Edit{Dependencies: &text})
}

// Update validates and applies e to the task with id. Nothing is applied
// when any field is rejected.
func (s *Session) Update(ctx context.Context, id string, e Edit) (*schedule.Snapshot, error) {
	if e.IsEmpty() {
		return nil, cerr.NewError(cerr.InvalidArgument, "no fields to update", nil)
	}
	if err := validateEdit(e); err != nil {
		return nil, err
	}
	return s.mutate(ctx, e.Filter, id, func(roots []*schedule.Task) error {
		t := schedule.Find(roots, id)
		if t == nil {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}
		if e.Dependencies != nil {
			deps, err := resolveDependencies(roots, e.Filter, t, *e.Dependencies)
			if err != nil {
				return err
			}
			t.Dependencies = deps
		}
		if e.Title != nil {
			t.Title = strings.TrimSpace(*e.Title)
		}
		if e.Progress != nil {
			t.Progress = *e.Progress
		}
		if e.Duration != nil {
			t.Duration = *e.Duration
		}
		if e.StartDate != nil {
			t.NotBefore = *e.StartDate
			if !e.StartDate.IsZero() {
				t.StartDate = *e.StartDate
			}
		}
		if e.EndDate != nil {
			return s.applyEndDate(t, *e.EndDate)
		}
		return nil
	})
}

func validateEdit(e Edit) error {
	err := cerr.NewError(cerr.InvalidArgument, "invalid task fields", nil)
	if e.Title != nil && strings.TrimSpace(*e.Title) == "" {
		err.AddViolation("title_required", "title", "title must not be empty")
	}
	if e.Duration != nil && *e.Duration < 1 {
		err.AddViolation("duration_positive", "duration", "duration must be at least 1 day")
	}
	if e.Progress != nil && (*e.Progress < 0 || *e.Progress > 100) {
		err.AddViolation("progress_range", "progress", "progress must be between 0 and 100")
	}
	if e.EndDate != nil && e.EndDate.IsZero() {
		err.AddViolation("end_date_required", "end_date", "end date must be set")
	}
	if e.StartDate != nil && e.EndDate != nil && !e.StartDate.IsZero() && e.EndDate.Before(*e.StartDate) {
		err.AddViolation("end_after_start", "end_date", "end date must not be before start date")
	}
	if len(err.Details) > 0 {
		return err
	}
	return nil
}

// applyEndDate moves the end of t, keeping its start and deriving the new
// duration. An undated task keeps its duration and is placed to end there.
func (s *Session) applyEndDate(t *schedule.Task, end schedule.Date) error {
	cal := s.calendar()
	if t.StartDate.IsZero() {
		t.EndDate = end
		return nil
	}
	if end.Before(t.StartDate) {
		return cerr.NewError(cerr.InvalidArgument, "invalid task fields", nil).
			AddViolation("end_after_start", "end_date", fmt.Sprintf("end date must not be before start date %s", t.StartDate))
	}
	t.Duration = cal.Span(t.StartDate, end)
	t.EndDate = end
	return nil
}

func (s *Session) calendar() schedule.Calendar {
	if s.opts.Schedule.Calendar != nil {
		return s.opts.Schedule.Calendar
	}
	return schedule.CalendarDays{}
}

// resolveDependencies parses text against the numbering view of filter and
// validates it for t.
func resolveDependencies(roots []*schedule.Task, filter schedule.Filter, t *schedule.Task, text string) ([]schedule.Dependency, error) {
	rows := schedule.NumberingView(roots, filter)
	x := schedule.NewRowIndex(rows)
	subjectRow := x.Row(t.ID)
	if subjectRow == 0 {
		return nil, cerr.NewError(cerr.FailedPrecondition, "task is not in the current view", nil)
	}

	parsed := schedule.ParseDependencies(text)
	result := schedule.ValidateDependencies(roots, rows, subjectRow, parsed)
	if !result.IsValid {
		err := cerr.NewError(cerr.InvalidArgument, "invalid dependencies", nil)
		for _, c := range result.Conflicts {
			err.AddViolation(string(c.Rule), "dependencies", c.Message)
		}
		return nil, err
	}
	return schedule.ReplaceDependencies(x, t, parsed), nil
}

// CheckDependencies validates text for the task, numbered against filter,
// without applying it.
func (s *Session) CheckDependencies(filter schedule.Filter, id, text string) (schedule.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule.Find(s.roots, id) == nil {
		return schedule.ValidationResult{}, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	rows := schedule.NumberingView(s.roots, filter)
	x := schedule.NewRowIndex(rows)
	subjectRow := x.Row(id)
	if subjectRow == 0 {
		return schedule.ValidationResult{}, cerr.NewError(cerr.FailedPrecondition, "task is not in the current view", nil)
	}
	return schedule.ValidateDependencies(s.roots, rows, subjectRow, schedule.ParseDependencies(text)), nil
}

// AddTask appends a new task under parentID, or as a root when parentID is
// empty. The task starts with its parent, or today when the parent has no
// dates. The returned schedule is built with filter.
func (s *Session) AddTask(ctx context.Context, filter schedule.Filter, parentID, title string, duration int) (string, *schedule.Snapshot, error) {
	if duration == 0 {
		duration = 1
	}
	if err := validateEdit(Edit{Title: &title, Duration: &duration}); err != nil {
		return "", nil, err
	}
	id := ulid.Make().String()
	snap, err := s.mutate(ctx, filter, id, func(roots []*schedule.Task) error {
		t := &schedule.Task{
			ID:       id,
			Title:    strings.TrimSpace(title),
			Duration: duration,
		}
		if parentID == "" {
			t.StartDate = s.today()
			s.roots = append(roots, t)
			return nil
		}
		parent := schedule.Find(roots, parentID)
		if parent == nil {
			return cerr.NewError(cerr.NotFound, "parent task not found", nil)
		}
		t.StartDate = parent.StartDate
		if t.StartDate.IsZero() {
			t.StartDate = s.today()
		}
		parent.Children = append(parent.Children, t)
		parent.Expanded = true
		s.roots = roots
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return id, snap, nil
}

func (s *Session) today() schedule.Date {
	if !s.opts.Schedule.Today.IsZero() {
		return s.opts.Schedule.Today
	}
	return schedule.Today()
}

// DeleteTask removes the task, its subtree and every dependency on them.
func (s *Session) DeleteTask(ctx context.Context, filter schedule.Filter, id string) (*schedule.Snapshot, error) {
	return s.mutate(ctx, filter, "", func(roots []*schedule.Task) error {
		next, ok := schedule.Remove(roots, id)
		if !ok {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}
		s.roots = next
		return nil
	})
}

// ToggleExpanded flips the expanded state of a task with children.
func (s *Session) ToggleExpanded(ctx context.Context, filter schedule.Filter, id string) (*schedule.Snapshot, error) {
	return s.mutate(ctx, filter, id, func(roots []*schedule.Task) error {
		t := schedule.Find(roots, id)
		if t == nil {
			return cerr.NewError(cerr.NotFound, "task not found", nil)
		}
		if !t.HasChildren() {
			return cerr.NewError(cerr.FailedPrecondition, "task has no children", nil)
		}
		t.Expanded = !t.Expanded
		return nil
	})
}

// mutate runs fn on a copy of the tree, reschedules everything downstream of
// changedID (the whole forest when empty) and swaps the result in. fn may
// replace s.roots with a new slice of the copy; errors leave state untouched.
// The returned schedule is built with filter.
func (s *Session) mutate(ctx context.Context, filter schedule.Filter, changedID string, fn func(roots []*schedule.Task) error) (*schedule.Snapshot, error) {
	s.mu.Lock()
	before := s.roots
	work := schedule.CloneTree(before)
	s.roots = work
	if err := fn(work); err != nil {
		s.roots = before
		s.mu.Unlock()
		return nil, err
	}
	work = s.roots

	var (
		scheduled []*schedule.Task
		warnings  []schedule.Warning
		err       error
	)
	if changedID != "" {
		scheduled, warnings, err = s.scheduler.Propagate(work, changedID)
	} else {
		scheduled, warnings, err = s.scheduler.ScheduleAll(work)
	}
	if err != nil {
		s.roots = before
		s.mu.Unlock()
		if errors.Is(err, schedule.ErrCycle) {
			return nil, cerr.NewError(cerr.FailedPrecondition, "dependency cycle", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", err)
	}
	schedule.FixLevels(scheduled)
	s.roots = scheduled

	ids := s.stageLocked(task.ItemsFromTree(s.projectID, before), task.ItemsFromTree(s.projectID, scheduled))
	snap, err := s.snapshotLocked(filter)
	s.mu.Unlock()

	s.logWarnings(ctx, warnings)
	s.flush(ctx, ids)
	s.bus.PublishNew(eventbus.EventScheduleChanged, s.projectID, changedID, "")
	return snap, err
}

func (s *Session) logWarnings(ctx context.Context, warnings []schedule.Warning) {
	for _, w := range warnings {
		slog.WarnContext(ctx, "dependency skipped while scheduling",
			"project_id", s.projectID,
			"task_id", w.TaskID,
			"predecessor_id", w.PredecessorID,
			"reason", w.Message,
		)
	}
}

// Reload replaces the tree with the store's state, then replays every
// pending intent on top of it so local edits that have not reached the
// store yet are not lost.
func (s *Session) Reload(ctx context.Context) error {
	items, err := s.repo.List(ctx, s.projectID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	items = s.replayLocked(items)
	roots := task.BuildTree(items)
	scheduled, warnings, err := s.scheduler.ScheduleAll(roots)
	if err != nil {
		s.mu.Unlock()
		return cerr.NewError(cerr.FailedPrecondition, "stored schedule has a dependency cycle", err)
	}
	schedule.FixLevels(scheduled)
	s.roots = scheduled
	staged := s.stageLocked(items, task.ItemsFromTree(s.projectID, scheduled))
	ids := s.pendingLocked()
	s.mu.Unlock()

	s.logWarnings(ctx, warnings)
	s.flush(ctx, ids)
	slog.InfoContext(ctx, "project reloaded", "project_id", s.projectID, "tasks", len(items), "rescheduled", len(staged), "pending", len(ids))
	s.bus.PublishNew(eventbus.EventReloaded, s.projectID, "", "")
	return nil
}

// Wait blocks until every write started so far has finished.
func (s *Session) Wait() {
	s.saves.Wait()
}
