package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is returned when scheduling is asked to run over a cyclic
// dependency graph. Validation rejects such edits before they are applied.
var ErrCycle = errors.New("dependency cycle")

// Warning reports a dependency that was skipped while scheduling.
type Warning struct {
	TaskID        string `json:"task_id"`
	PredecessorID string `json:"predecessor_id"`
	Message       string `json:"message"`
}

// Scheduler computes as-soon-as-possible dates from dependency constraints.
type Scheduler struct {
	cal Calendar
}

func NewScheduler(cal Calendar) *Scheduler {
	if cal == nil {
		cal = CalendarDays{}
	}
	return &Scheduler{cal: cal}
}

var defaultScheduler = NewScheduler(CalendarDays{})

// AutoScheduleTask schedules t against the predecessors found in all using
// the calendar-day model.
func AutoScheduleTask(t *Task, all []*Task) (*Task, []Warning) {
	return defaultScheduler.AutoScheduleTask(t, all)
}

// Propagate reschedules the task with changedID and everything downstream of
// it using the calendar-day model.
func Propagate(roots []*Task, changedID string) ([]*Task, []Warning, error) {
	return defaultScheduler.Propagate(roots, changedID)
}

// ScheduleAll reschedules every task of a copy of the forest using the
// calendar-day model.
func ScheduleAll(roots []*Task) ([]*Task, []Warning, error) {
	return defaultScheduler.ScheduleAll(roots)
}

// AutoScheduleTask returns a copy of t with dates recomputed from its
// dependencies. Predecessors are looked up by id in all (and their
// subtrees). The copy shares t's children.
func (s *Scheduler) AutoScheduleTask(t *Task, all []*Task) (*Task, []Warning) {
	idx := Index(all)
	c := *t
	warnings := s.apply(&c, func(id string) *Task { return idx[id] })
	return &c, warnings
}

// Propagate returns a rescheduled copy of the forest in which the task with
// changedID and every task transitively depending on it satisfy their
// constraints. The input forest is not modified.
func (s *Scheduler) Propagate(roots []*Task, changedID string) ([]*Task, []Warning, error) {
	out := CloneTree(roots)
	warnings, err := s.propagate(out, changedID)
	if err != nil {
		return nil, nil, err
	}
	return out, warnings, nil
}

// ScheduleAll returns a copy of the forest with every task rescheduled in
// dependency order.
func (s *Scheduler) ScheduleAll(roots []*Task) ([]*Task, []Warning, error) {
	out := CloneTree(roots)
	warnings, err := s.propagate(out, "")
	if err != nil {
		return nil, nil, err
	}
	return out, warnings, nil
}

// propagate schedules in place. An empty changedID schedules every task.
func (s *Scheduler) propagate(roots []*Task, changedID string) ([]Warning, error) {
	g := newGraph(roots)
	order, cyclic := g.topoOrder()
	if len(cyclic) > 0 {
		if cycle := DetectCycle(roots); cycle != nil {
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " → "))
		}
		return nil, ErrCycle
	}

	var affected map[string]bool
	if changedID != "" {
		if _, ok := g.tasks[changedID]; !ok {
			return nil, fmt.Errorf("task %s not found", changedID)
		}
		affected = g.downstream(changedID)
		affected[changedID] = true
	}

	lookup := func(id string) *Task { return g.tasks[id] }
	var warnings []Warning
	for _, id := range order {
		if affected != nil && !affected[id] {
			continue
		}
		warnings = append(warnings, s.apply(g.tasks[id], lookup)...)
	}
	return warnings, nil
}

// apply recomputes t's dates in place. Start becomes the latest of every
// resolvable dependency bound and NotBefore; a task with nothing to bind it
// keeps its start. End always follows from start and duration.
func (s *Scheduler) apply(t *Task, lookup func(id string) *Task) []Warning {
	if t.Duration < 1 {
		t.Duration = 1
	}

	var warnings []Warning
	var bound Date
	for _, d := range t.Dependencies {
		pred := lookup(d.PredecessorID)
		switch {
		case pred == nil:
			warnings = append(warnings, Warning{
				TaskID:        t.ID,
				PredecessorID: d.PredecessorID,
				Message:       fmt.Sprintf("predecessor %s of %q no longer exists", d.PredecessorID, t.Title),
			})
			continue
		case pred.ID == t.ID:
			warnings = append(warnings, Warning{
				TaskID:        t.ID,
				PredecessorID: d.PredecessorID,
				Message:       fmt.Sprintf("%q depends on itself", t.Title),
			})
			continue
		case !pred.HasDates():
			warnings = append(warnings, Warning{
				TaskID:        t.ID,
				PredecessorID: d.PredecessorID,
				Message:       fmt.Sprintf("predecessor %q of %q has no dates", pred.Title, t.Title),
			})
			continue
		}
		bound = maxDate(bound, s.StartBound(pred, d, t.Duration))
	}
	if !t.NotBefore.IsZero() {
		if bound.IsZero() && !t.StartDate.IsZero() {
			bound = maxDate(t.StartDate, t.NotBefore)
		} else {
			bound = maxDate(bound, t.NotBefore)
		}
	}

	switch {
	case !bound.IsZero():
		t.StartDate = bound
	case t.StartDate.IsZero() && !t.EndDate.IsZero():
		t.StartDate = s.cal.StartFor(t.EndDate, t.Duration)
	}
	if !t.StartDate.IsZero() {
		t.EndDate = s.cal.EndFor(t.StartDate, t.Duration)
	}
	return warnings
}

// StartBound is the earliest start a successor of the given duration may
// have under dependency d on pred.
func (s *Scheduler) StartBound(pred *Task, d Dependency, duration int) Date {
	switch d.Relationship {
	case StartToStart:
		return s.cal.Shift(pred.StartDate, d.LagDays)
	case FinishToFinish:
		return s.cal.StartFor(s.cal.Shift(pred.EndDate, d.LagDays), duration)
	case StartToFinish:
		return s.cal.StartFor(s.cal.Shift(pred.StartDate, d.LagDays), duration)
	default:
		return s.cal.Shift(pred.EndDate, d.LagDays+1)
	}
}
