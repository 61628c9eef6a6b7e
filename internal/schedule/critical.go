package schedule

import "sort"

// Timing holds the CPM dates of one task.
type Timing struct {
	TaskID         string `json:"task_id"`
	EarliestStart  Date   `json:"earliest_start"`
	EarliestFinish Date   `json:"earliest_finish"`
	LatestStart    Date   `json:"latest_start"`
	LatestFinish   Date   `json:"latest_finish"`
	Float          int    `json:"float"`
	Critical       bool   `json:"critical"`
}

type CriticalPathResult struct {
	CriticalTaskIDs []string          `json:"critical_task_ids"`
	ProjectFinish   Date              `json:"project_finish"`
	Timings         map[string]Timing `json:"timings"`
}

func (r *CriticalPathResult) IsCritical(id string) bool {
	if r == nil {
		return false
	}
	return r.Timings[id].Critical
}

// ComputeCriticalPath runs the CPM forward and backward passes with the
// calendar-day model.
func ComputeCriticalPath(roots []*Task) (*CriticalPathResult, error) {
	return defaultScheduler.ComputeCriticalPath(roots)
}

// ComputeCriticalPath runs a forward and a backward pass over the schedulable
// tasks: tasks with dates that are leaves or take part in a dependency. A task
// is critical when its float is zero. Critical ids are ordered by earliest
// start, then row number, then id.
func (s *Scheduler) ComputeCriticalPath(roots []*Task) (*CriticalPathResult, error) {
	g := newGraph(roots)
	order, cyclic := g.topoOrder()
	if len(cyclic) > 0 {
		return nil, ErrCycle
	}

	nodes := make(map[string]bool)
	for _, id := range order {
		t := g.tasks[id]
		if !t.HasDates() {
			continue
		}
		if !t.HasChildren() || len(g.incoming[id]) > 0 || len(g.outgoing[id]) > 0 {
			nodes[id] = true
		}
	}
	inNodes := func(e edge) bool { return nodes[e.from] && nodes[e.to] }

	result := &CriticalPathResult{Timings: make(map[string]Timing, len(nodes))}
	duration := func(t *Task) int {
		if t.Duration < 1 {
			return 1
		}
		return t.Duration
	}

	// Forward pass.
	for _, id := range order {
		if !nodes[id] {
			continue
		}
		t := g.tasks[id]
		var es Date
		constrained := false
		for _, e := range g.incoming[id] {
			if !inNodes(e) {
				continue
			}
			pred := g.tasks[e.from]
			pt := result.Timings[e.from]
			shadow := &Task{ID: pred.ID, StartDate: pt.EarliestStart, EndDate: pt.EarliestFinish}
			es = maxDate(es, s.StartBound(shadow, e.dep, duration(t)))
			constrained = true
		}
		if !constrained {
			es = t.StartDate
		} else if !t.NotBefore.IsZero() {
			es = maxDate(es, t.NotBefore)
		}
		ef := s.cal.EndFor(es, duration(t))
		result.Timings[id] = Timing{TaskID: id, EarliestStart: es, EarliestFinish: ef}
		result.ProjectFinish = maxDate(result.ProjectFinish, ef)
	}

	// Backward pass.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if !nodes[id] {
			continue
		}
		t := g.tasks[id]
		tm := result.Timings[id]
		lf := result.ProjectFinish
		for _, e := range g.outgoing[id] {
			if !inNodes(e) {
				continue
			}
			lf = minDate(lf, s.latestFinishBound(result.Timings[e.to], e.dep, duration(t)))
		}
		tm.LatestFinish = lf
		tm.LatestStart = s.cal.StartFor(lf, duration(t))
		tm.Float = tm.LatestStart.DaysSince(tm.EarliestStart)
		tm.Critical = tm.Float == 0
		result.Timings[id] = tm
		if tm.Critical {
			result.CriticalTaskIDs = append(result.CriticalTaskIDs, id)
		}
	}

	sort.SliceStable(result.CriticalTaskIDs, func(i, j int) bool {
		a, b := result.Timings[result.CriticalTaskIDs[i]], result.Timings[result.CriticalTaskIDs[j]]
		if c := a.EarliestStart.Compare(b.EarliestStart); c != 0 {
			return c < 0
		}
		ta, tb := g.tasks[a.TaskID], g.tasks[b.TaskID]
		if ta.RowNumber != tb.RowNumber {
			return ta.RowNumber < tb.RowNumber
		}
		return a.TaskID < b.TaskID
	})
	return result, nil
}

// latestFinishBound mirrors StartBound: the latest finish a predecessor of
// the given duration may have without pushing successor timing succ.
func (s *Scheduler) latestFinishBound(succ Timing, d Dependency, duration int) Date {
	switch d.Relationship {
	case StartToStart:
		return s.cal.EndFor(s.cal.Shift(succ.LatestStart, -d.LagDays), duration)
	case FinishToFinish:
		return s.cal.Shift(succ.LatestFinish, -d.LagDays)
	case StartToFinish:
		return s.cal.EndFor(s.cal.Shift(succ.LatestFinish, -d.LagDays), duration)
	default:
		return s.cal.Shift(succ.LatestStart, -(d.LagDays + 1))
	}
}
