package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoScheduleTask_FinishToStartWithLag(t *testing.T) {
	a := dated(newTask("a", 3), "2024-01-01")
	b := newTask("b", 2)
	all := []*Task{a, b}

	x := NewRowIndex(NumberingView(all, Filter{}))
	deps, unresolved := ResolveRows(x, ParseDependencies("1FS+1"))
	require.Empty(t, unresolved)
	b.Dependencies = deps

	got, warnings := AutoScheduleTask(b, all)
	assert.Empty(t, warnings)
	assert.Equal(t, day("2024-01-03"), a.EndDate)
	assert.Equal(t, day("2024-01-05"), got.StartDate)
	assert.Equal(t, day("2024-01-06"), got.EndDate)
	assert.True(t, b.StartDate.IsZero(), "input task must not change")
}

func TestAutoScheduleTask_Relationships(t *testing.T) {
	pred := dated(newTask("p", 5), "2024-01-05") // 01-05 .. 01-09

	tests := []struct {
		name      string
		dep       Dependency
		duration  int
		wantStart string
		wantEnd   string
	}{
		{"FS", Dependency{PredecessorID: "p", Relationship: FinishToStart}, 2, "2024-01-10", "2024-01-11"},
		{"FS negative lag", Dependency{PredecessorID: "p", Relationship: FinishToStart, LagDays: -2}, 2, "2024-01-08", "2024-01-09"},
		{"SS", Dependency{PredecessorID: "p", Relationship: StartToStart, LagDays: 1}, 2, "2024-01-06", "2024-01-07"},
		{"FF", Dependency{PredecessorID: "p", Relationship: FinishToFinish}, 3, "2024-01-07", "2024-01-09"},
		{"SF", Dependency{PredecessorID: "p", Relationship: StartToFinish, LagDays: 2}, 2, "2024-01-06", "2024-01-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			succ := dependsOn(newTask("s", tt.duration), tt.dep)
			got, warnings := AutoScheduleTask(succ, []*Task{pred})
			assert.Empty(t, warnings)
			assert.Equal(t, day(tt.wantStart), got.StartDate)
			assert.Equal(t, day(tt.wantEnd), got.EndDate)
		})
	}
}

func TestAutoScheduleTask_LatestConstraintWins(t *testing.T) {
	a := dated(newTask("a", 2), "2024-01-01")
	b := dated(newTask("b", 4), "2024-01-01")
	c := dependsOn(newTask("c", 1), fs("a", 0), fs("b", 0))

	got, _ := AutoScheduleTask(c, []*Task{a, b})
	assert.Equal(t, day("2024-01-05"), got.StartDate)
}

func TestAutoScheduleTask_NotBefore(t *testing.T) {
	a := dated(newTask("a", 2), "2024-01-01")
	b := dependsOn(newTask("b", 2), fs("a", 0))
	b.NotBefore = day("2024-01-10")

	got, _ := AutoScheduleTask(b, []*Task{a})
	assert.Equal(t, day("2024-01-10"), got.StartDate)
	assert.Equal(t, day("2024-01-11"), got.EndDate)
}

func TestAutoScheduleTask_UnresolvablePredecessors(t *testing.T) {
	undated := newTask("undated", 2)
	b := dated(newTask("b", 2), "2024-01-15")
	dependsOn(b, fs("ghost", 0), fs("undated", 0), fs("b", 0))

	got, warnings := AutoScheduleTask(b, []*Task{undated, b})
	assert.Len(t, warnings, 3)
	assert.Equal(t, day("2024-01-15"), got.StartDate)
	assert.Equal(t, day("2024-01-16"), got.EndDate)
}

func TestAutoScheduleTask_EndOnlyDerivesStart(t *testing.T) {
	task := newTask("a", 3)
	task.EndDate = day("2024-01-10")
	got, _ := AutoScheduleTask(task, nil)
	assert.Equal(t, day("2024-01-08"), got.StartDate)
}

func TestPropagate(t *testing.T) {
	roots := []*Task{
		dated(newTask("a", 3), "2024-01-01"),
		dependsOn(dated(newTask("b", 2), "2024-01-04"), fs("a", 0)),
		newTask("phase", 1,
			dependsOn(dated(newTask("c", 2), "2024-01-06"), fs("b", 1)),
			dependsOn(dated(newTask("d", 1), "2024-01-05"), Dependency{PredecessorID: "b", Relationship: StartToStart, LagDays: 1}),
		),
		dated(newTask("e", 5), "2024-01-02"),
	}
	roots[0].StartDate = day("2024-02-01")

	out, warnings, err := Propagate(roots, "a")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	idx := Index(out)
	assert.Equal(t, day("2024-02-03"), idx["a"].EndDate)
	assert.Equal(t, day("2024-02-04"), idx["b"].StartDate)
	assert.Equal(t, day("2024-02-07"), idx["c"].StartDate)
	assert.Equal(t, day("2024-02-05"), idx["d"].StartDate)
	assert.Equal(t, day("2024-01-02"), idx["e"].StartDate)

	for _, task := range idx {
		for _, d := range task.Dependencies {
			pred := idx[d.PredecessorID]
			assert.False(t, task.StartDate.Before(defaultScheduler.StartBound(pred, d, task.Duration)),
				"%s starts before its bound on %s", task.ID, pred.ID)
		}
		if task.HasDates() {
			assert.True(t, task.IsConsistent(CalendarDays{}), task.ID)
		}
	}

	assert.Equal(t, day("2024-01-03"), Index(roots)["a"].EndDate, "input forest must not change")
}

func TestPropagate_Errors(t *testing.T) {
	_, _, err := Propagate(chain(), "missing")
	assert.Error(t, err)

	roots := chain()
	dependsOn(roots[0], fs("c", 0))
	_, _, err = Propagate(roots, "a")
	assert.ErrorIs(t, err, ErrCycle)
}

func TestScheduleAll_MovesTasksEarlierToo(t *testing.T) {
	roots := []*Task{
		dated(newTask("a", 2), "2024-01-01"),
		dependsOn(dated(newTask("b", 2), "2024-03-01"), fs("a", 0)),
	}
	out, _, err := NewScheduler(nil).ScheduleAll(roots)
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-03"), Index(out)["b"].StartDate)
}
