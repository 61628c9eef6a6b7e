package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kev1903/skrobakios/internal/schedule"
)

func ptr[T any](v T) *T {
	return &v
}

func TestPatch(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())

	it := &Item{ID: "a", Title: "Old", Duration: 2}
	p := Patch{Title: ptr("New"), StartDate: ptr(schedule.MustParseDate("2024-03-04"))}
	assert.Equal(t, []string{"title", "start_date"}, p.Fields())

	p.Apply(it)
	assert.Equal(t, "New", it.Title)
	assert.Equal(t, 2, it.Duration)
	assert.Equal(t, schedule.MustParseDate("2024-03-04"), it.StartDate)
}

func TestPatch_MergeLaterWins(t *testing.T) {
	a := Patch{Title: ptr("first"), Duration: ptr(3)}
	b := Patch{Title: ptr("second"), Progress: ptr(50)}
	m := a.Merge(b)
	assert.Equal(t, "second", *m.Title)
	assert.Equal(t, 3, *m.Duration)
	assert.Equal(t, 50, *m.Progress)
}

func TestDiff(t *testing.T) {
	before := &Item{ID: "a", Title: "T", Duration: 2}
	after := &Item{ID: "a", Title: "T", Duration: 4,
		Dependencies: []ItemDependency{{PredecessorID: "b"}}}

	d := Diff(before, after)
	assert.Equal(t, []string{"duration", "dependencies"}, d.Fields())
	assert.True(t, Diff(after, after).IsEmpty())

	d.Apply(before)
	assert.Equal(t, after, before)
}
