package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// a{a1, a2 (done){a2a}}, b (done), c
func sampleForest() []*Task {
	a2 := newTask("a2", 2, newTask("a2a", 1))
	a2.Progress = 100
	b := newTask("b", 1)
	b.Progress = 100
	return []*Task{
		newTask("a", 3, newTask("a1", 1), a2),
		b,
		newTask("c", 4),
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		expanded map[string]bool
		want     []string
	}{
		{
			name: "collapsed",
			want: []string{"a", "b", "c"},
		},
		{
			name:     "one level expanded",
			expanded: map[string]bool{"a": true},
			want:     []string{"a", "a1", "a2", "b", "c"},
		},
		{
			name:     "fully expanded",
			expanded: map[string]bool{"a": true, "a2": true},
			want:     []string{"a", "a1", "a2", "a2a", "b", "c"},
		},
		{
			name:     "hide completed skips subtree",
			filter:   Filter{HideCompleted: true},
			expanded: map[string]bool{"a": true, "a2": true},
			want:     []string{"a", "a1", "c"},
		},
		{
			name:     "expanded child under collapsed parent stays hidden",
			expanded: map[string]bool{"a2": true},
			want:     []string{"a", "b", "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Flatten(sampleForest(), tt.filter, tt.expanded)))
		})
	}
}

func TestNumberingView_IgnoresCollapse(t *testing.T) {
	roots := sampleForest()
	rows := NumberingView(roots, Filter{})
	assert.Equal(t, []string{"a", "a1", "a2", "a2a", "b", "c"}, ids(rows))

	AssignRowNumbers(rows)
	for i, r := range rows {
		assert.Equal(t, i+1, r.RowNumber)
	}
}

func TestNumberingView_StableAcrossFilterToggle(t *testing.T) {
	roots := sampleForest()

	number := func(f Filter) map[string]int {
		x := NewRowIndex(NumberingView(roots, f))
		out := make(map[string]int)
		for _, r := range x.Rows() {
			out[r.ID] = x.Row(r.ID)
		}
		return out
	}

	hidden := number(Filter{HideCompleted: true})
	assert.Equal(t, map[string]int{"a": 1, "a1": 2, "c": 3}, hidden)

	shown := number(Filter{})
	assert.Equal(t, 6, shown["c"])

	assert.Equal(t, hidden, number(Filter{HideCompleted: true}))
}

func TestRowIndex(t *testing.T) {
	x := NewRowIndex(NumberingView(sampleForest(), Filter{}))
	assert.Equal(t, 6, x.Len())
	assert.Equal(t, "a2", x.Task(3).ID)
	assert.Nil(t, x.Task(0))
	assert.Nil(t, x.Task(7))
	assert.Equal(t, 4, x.Row("a2a"))
	assert.Equal(t, 0, x.Row("missing"))
}
