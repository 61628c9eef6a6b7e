package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConflictRule identifies which validation rule a conflict violates.
type ConflictRule string

const (
	RuleSelfReference     ConflictRule = "self_reference"
	RuleDanglingReference ConflictRule = "dangling_reference"
	RuleCycle             ConflictRule = "cycle"
)

type Conflict struct {
	Rule    ConflictRule `json:"rule"`
	Message string       `json:"message"`
	Rows    []int        `json:"rows,omitempty"`
}

type ValidationResult struct {
	IsValid   bool       `json:"is_valid"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Messages returns one message per violated rule.
func (r ValidationResult) Messages() []string {
	msgs := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		msgs[i] = c.Message
	}
	return msgs
}

func (r *ValidationResult) add(c Conflict) {
	r.IsValid = false
	r.Conflicts = append(r.Conflicts, c)
}

// ValidateDependencies checks a proposed dependency set for the task on
// subjectRow. rows is the numbering view the text was written against; the
// dependency graph used for cycle detection is taken from the whole forest so
// links through filtered-out tasks are still seen. The checks run in order:
// self reference, dangling reference, cycle.
func ValidateDependencies(roots []*Task, rows []*Task, subjectRow int, proposed []RowDependency) ValidationResult {
	result := ValidationResult{IsValid: true}
	x := NewRowIndex(rows)

	var selfRows, danglingRows []int
	candidates := make([]RowDependency, 0, len(proposed))
	for _, d := range proposed {
		switch {
		case d.PredecessorRow == subjectRow:
			selfRows = appendUnique(selfRows, d.PredecessorRow)
		case x.Task(d.PredecessorRow) == nil:
			danglingRows = appendUnique(danglingRows, d.PredecessorRow)
		default:
			candidates = append(candidates, d)
		}
	}

	if len(selfRows) > 0 {
		result.add(Conflict{
			Rule:    RuleSelfReference,
			Message: fmt.Sprintf("Task cannot depend on itself (row %d)", subjectRow),
			Rows:    selfRows,
		})
	}
	if len(danglingRows) > 0 {
		msg := fmt.Sprintf("Row %d does not exist", danglingRows[0])
		if len(danglingRows) > 1 {
			msg = fmt.Sprintf("Rows %s do not exist", joinRows(danglingRows))
		}
		result.add(Conflict{Rule: RuleDanglingReference, Message: msg, Rows: danglingRows})
	}

	subject := x.Task(subjectRow)
	if subject == nil {
		return result
	}
	g := newGraph(roots)
	var cycleRows []int
	var path []string
	for _, d := range candidates {
		pred := x.Task(d.PredecessorRow)
		p := g.pathBetween(subject.ID, pred.ID)
		if p == nil {
			continue
		}
		cycleRows = appendUnique(cycleRows, d.PredecessorRow)
		if path == nil {
			path = p
		}
	}
	if len(cycleRows) > 0 {
		result.add(Conflict{
			Rule:    RuleCycle,
			Message: "Circular dependency: " + describePath(x, path),
			Rows:    cycleRows,
		})
	}
	return result
}

// DetectCycle returns the ids of one dependency cycle in the forest, first id
// repeated at the end, or nil when the graph is acyclic.
func DetectCycle(roots []*Task) []string {
	g := newGraph(roots)
	_, cyclic := g.topoOrder()
	if len(cyclic) == 0 {
		return nil
	}
	for _, id := range cyclic {
		for _, succ := range g.successors[id] {
			if p := g.pathBetween(succ, id); p != nil {
				return append([]string{id}, p...)
			}
		}
	}
	return nil
}

func describePath(x *RowIndex, ids []string) string {
	parts := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		if row := x.Row(id); row > 0 {
			parts = append(parts, "row "+strconv.Itoa(row))
		} else {
			parts = append(parts, id)
		}
	}
	if len(parts) > 0 {
		parts = append(parts, parts[0])
	}
	return strings.Join(parts, " → ")
}

func appendUnique(rows []int, row int) []int {
	for _, r := range rows {
		if r == row {
			return rows
		}
	}
	return append(rows, row)
}

func joinRows(rows []int) string {
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}
