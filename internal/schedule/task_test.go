package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationship_Parse(t *testing.T) {
	for _, s := range []string{"FS", "ss", "Ff", "sf"} {
		r, ok := ParseRelationship(s)
		assert.True(t, ok, s)
		assert.True(t, r.IsValid())
	}
	_, ok := ParseRelationship("XX")
	assert.False(t, ok)

	var r Relationship
	assert.Error(t, r.UnmarshalText([]byte("nope")))
}

func TestCloneTree_IsDeep(t *testing.T) {
	roots := []*Task{dependsOn(newTask("a", 1, newTask("a1", 1)), fs("x", 0))}
	c := CloneTree(roots)

	c[0].Title = "changed"
	c[0].Children[0].Duration = 9
	c[0].Dependencies[0].LagDays = 5

	assert.Equal(t, "Task a", roots[0].Title)
	assert.Equal(t, 1, roots[0].Children[0].Duration)
	assert.Equal(t, 0, roots[0].Dependencies[0].LagDays)
}

func TestFindAndFindParent(t *testing.T) {
	roots := sampleForest()
	require.NotNil(t, Find(roots, "a2a"))
	assert.Nil(t, Find(roots, "zzz"))
	assert.Equal(t, "a2", FindParent(roots, "a2a").ID)
	assert.Nil(t, FindParent(roots, "a"))
}

func TestRemove_DropsSubtreeAndDependencies(t *testing.T) {
	roots := sampleForest()
	dependsOn(Find(roots, "c"), fs("a2a", 0), fs("a1", 2))

	roots, ok := Remove(roots, "a2")
	require.True(t, ok)
	assert.Nil(t, Find(roots, "a2"))
	assert.Nil(t, Find(roots, "a2a"))
	assert.Equal(t, []Dependency{fs("a1", 2)}, Find(roots, "c").Dependencies)

	_, ok = Remove(roots, "missing")
	assert.False(t, ok)
}

func TestFixLevels(t *testing.T) {
	roots := sampleForest()
	FixLevels(roots)
	assert.Equal(t, 0, Find(roots, "a").Level)
	assert.Equal(t, 1, Find(roots, "a2").Level)
	assert.Equal(t, 2, Find(roots, "a2a").Level)
}

func TestIsConsistent(t *testing.T) {
	cal := CalendarDays{}
	task := dated(newTask("a", 3), "2024-01-01")
	assert.True(t, task.IsConsistent(cal))
	task.EndDate = day("2024-01-05")
	assert.False(t, task.IsConsistent(cal))
	assert.False(t, newTask("b", 1).IsConsistent(cal))
}
