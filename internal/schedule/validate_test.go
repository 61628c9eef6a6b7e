package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a <- b <- c (finish-to-start chain), rows 1..3.
func chain() []*Task {
	return []*Task{
		newTask("a", 1),
		dependsOn(newTask("b", 1), fs("a", 0)),
		dependsOn(newTask("c", 1), fs("b", 0)),
	}
}

func validate(roots []*Task, filter Filter, subjectRow int, text string) ValidationResult {
	return ValidateDependencies(roots, NumberingView(roots, filter), subjectRow, ParseDependencies(text))
}

func TestValidateDependencies_Valid(t *testing.T) {
	res := validate(chain(), Filter{}, 3, "1")
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Conflicts)
}

func TestValidateDependencies_SelfReference(t *testing.T) {
	res := validate(chain(), Filter{}, 2, "2,2")
	require.False(t, res.IsValid)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, RuleSelfReference, res.Conflicts[0].Rule)
	assert.Equal(t, "Task cannot depend on itself (row 2)", res.Conflicts[0].Message)
}

func TestValidateDependencies_Dangling(t *testing.T) {
	res := validate(chain(), Filter{}, 1, "9")
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "Row 9 does not exist", res.Conflicts[0].Message)

	res = validate(chain(), Filter{}, 1, "12,9,9")
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "Rows 9, 12 do not exist", res.Conflicts[0].Message)
	assert.Equal(t, []int{12, 9}, res.Conflicts[0].Rows)
}

func TestValidateDependencies_Cycle(t *testing.T) {
	res := validate(chain(), Filter{}, 1, "3")
	require.False(t, res.IsValid)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, RuleCycle, res.Conflicts[0].Rule)
	assert.Equal(t, "Circular dependency: row 1 → row 2 → row 3 → row 1", res.Conflicts[0].Message)
}

func TestValidateDependencies_OneConflictPerRule(t *testing.T) {
	res := validate(chain(), Filter{}, 1, "1,2,9,3")
	require.False(t, res.IsValid)
	rules := make([]ConflictRule, len(res.Conflicts))
	for i, c := range res.Conflicts {
		rules[i] = c.Rule
	}
	assert.Equal(t, []ConflictRule{RuleSelfReference, RuleDanglingReference, RuleCycle}, rules)
	assert.Equal(t, []int{2, 3}, res.Conflicts[2].Rows)
	assert.Len(t, res.Messages(), 3)
}

func TestValidateDependencies_CycleThroughHiddenTask(t *testing.T) {
	done := dependsOn(newTask("done", 1), fs("a", 0))
	done.Progress = 100
	roots := []*Task{
		newTask("a", 1),
		dependsOn(newTask("b", 1), fs("done", 0)),
		done,
	}

	res := validate(roots, Filter{HideCompleted: true}, 1, "2")
	require.False(t, res.IsValid)
	assert.Equal(t, "Circular dependency: row 1 → done → row 2 → row 1", res.Conflicts[0].Message)
}

func TestDetectCycle(t *testing.T) {
	assert.Nil(t, DetectCycle(chain()))

	roots := chain()
	dependsOn(roots[0], fs("c", 0))
	cycle := DetectCycle(roots)
	require.NotEmpty(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycle[:len(cycle)-1])
}
