package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineForest() []*Task {
	done := dated(newTask("done", 1), "2024-01-01")
	done.Progress = 100
	return []*Task{
		newTask("phase", 1,
			dated(newTask("a", 3), "2024-01-01"),
			dependsOn(newTask("b", 2), fs("a", 0)),
		),
		done,
		dependsOn(newTask("c", 1), fs("done", 0)),
	}
}

func TestBuild(t *testing.T) {
	roots := pipelineForest()
	snap, err := Build(roots, View{
		Filter:   Filter{HideCompleted: true},
		Expanded: map[string]bool{"phase": true},
	}, Options{Today: day("2024-06-01")})
	require.NoError(t, err)

	require.Len(t, snap.Rows, 4)
	byID := make(map[string]Row)
	for i, r := range snap.Rows {
		assert.Equal(t, i+1, r.RowNumber)
		byID[r.ID] = r
	}

	assert.True(t, byID["phase"].HasChildren)
	assert.True(t, byID["phase"].Expanded)
	assert.Equal(t, 1, byID["a"].Level)
	assert.Equal(t, "2", byID["b"].Dependencies)
	assert.Equal(t, day("2024-01-04"), byID["b"].StartDate)
	assert.Equal(t, "", byID["c"].Dependencies)
	assert.Equal(t, 1, byID["c"].HiddenDependencies)
	assert.Equal(t, day("2024-01-02"), byID["c"].StartDate)

	assert.True(t, byID["a"].Critical)
	assert.True(t, byID["b"].Critical)
	assert.False(t, byID["c"].Critical)
	assert.Equal(t, 3, byID["c"].Float)

	assert.Equal(t, Bounds{StartDate: day("2024-01-01"), EndDate: day("2024-01-05")}, snap.Bounds)
	assert.Len(t, snap.Headers, 5)
	assert.Len(t, snap.Months, 1)
	assert.InDelta(t, 0.6, byID["a"].Bar.Width, 1e-9)

	assert.Equal(t, 5, snap.Stats.TotalTasks)
	assert.Equal(t, 1, snap.Stats.CompletedTasks)
	assert.Equal(t, []string{"a", "b"}, snap.Stats.CriticalPath)
}

func TestBuild_CollapsedKeepsNumbering(t *testing.T) {
	snap, err := Build(pipelineForest(), View{}, Options{Today: day("2024-06-01")})
	require.NoError(t, err)

	assert.Equal(t, []string{"phase", "done", "c"}, []string{snap.Rows[0].ID, snap.Rows[1].ID, snap.Rows[2].ID})
	assert.Equal(t, 4, snap.Rows[1].RowNumber)
	assert.Equal(t, "4", snap.Rows[2].Dependencies)
	assert.Equal(t, 5, snap.Numbering.Len())
}

func TestBuild_LeavesInputUntouched(t *testing.T) {
	roots := pipelineForest()
	before := CloneTree(roots)

	_, err := Build(roots, View{Expanded: map[string]bool{"phase": true}}, Options{Today: day("2024-06-01"), TimelineWidth: 800})
	require.NoError(t, err)
	assert.Equal(t, before, roots)
}

func TestBuild_Cycle(t *testing.T) {
	roots := chain()
	dependsOn(roots[0], fs("c", 0))
	_, err := Build(roots, View{}, Options{})
	assert.ErrorIs(t, err, ErrCycle)
}
