package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RowDependency is a dependency as written in the edit field: it names the
// predecessor by its current row number.
type RowDependency struct {
	PredecessorRow int          `json:"predecessor_row"`
	Relationship   Relationship `json:"type"`
	LagDays        int          `json:"lag_days"`
}

// <row>[FS|SS|FF|SF][+|-<lag>[d]]
var dependencyToken = regexp.MustCompile(`^(\d+)(FS|SS|FF|SF)?(?:([+-])(\d+)D?)?$`)

// ParseDependencies parses comma separated dependency tokens such as
// "3,5FS+2,7SS-1". Tokens that do not parse are dropped.
func ParseDependencies(text string) []RowDependency {
	var deps []RowDependency
	for _, raw := range strings.Split(text, ",") {
		token := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
		if token == "" {
			continue
		}
		m := dependencyToken.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		row, err := strconv.Atoi(m[1])
		if err != nil || row < 1 {
			continue
		}
		d := RowDependency{PredecessorRow: row, Relationship: FinishToStart}
		if m[2] != "" {
			d.Relationship, _ = ParseRelationship(m[2])
		}
		if m[4] != "" {
			lag, err := strconv.Atoi(m[4])
			if err != nil {
				continue
			}
			if m[3] == "-" {
				lag = -lag
			}
			d.LagDays = lag
		}
		deps = append(deps, d)
	}
	return deps
}

// FormatDependencies writes descriptors back in the edit-field grammar. The
// relationship code is omitted for a plain finish-to-start link without lag.
func FormatDependencies(deps []RowDependency) string {
	parts := make([]string, 0, len(deps))
	for _, d := range deps {
		parts = append(parts, formatDependency(d))
	}
	return strings.Join(parts, ",")
}

func formatDependency(d RowDependency) string {
	s := strconv.Itoa(d.PredecessorRow)
	if d.Relationship == FinishToStart && d.LagDays == 0 {
		return s
	}
	s += d.Relationship.String()
	switch {
	case d.LagDays > 0:
		s += fmt.Sprintf("+%d", d.LagDays)
	case d.LagDays < 0:
		s += fmt.Sprintf("-%d", -d.LagDays)
	}
	return s
}

// ResolveRows translates row descriptors into id dependencies against a
// numbering view. Rows that do not exist in the view are returned as
// unresolved.
func ResolveRows(x *RowIndex, deps []RowDependency) (resolved []Dependency, unresolved []RowDependency) {
	for _, d := range deps {
		t := x.Task(d.PredecessorRow)
		if t == nil {
			unresolved = append(unresolved, d)
			continue
		}
		resolved = append(resolved, Dependency{
			PredecessorID: t.ID,
			Relationship:  d.Relationship,
			LagDays:       d.LagDays,
		})
	}
	return resolved, unresolved
}

// RowsFor translates id dependencies into row descriptors for display.
// Predecessors that have no row in the view are returned as hidden.
func RowsFor(x *RowIndex, deps []Dependency) (rows []RowDependency, hidden []Dependency) {
	for _, d := range deps {
		row := x.Row(d.PredecessorID)
		if row == 0 {
			hidden = append(hidden, d)
			continue
		}
		rows = append(rows, RowDependency{
			PredecessorRow: row,
			Relationship:   d.Relationship,
			LagDays:        d.LagDays,
		})
	}
	return rows, hidden
}

// DependencyText is the edit-field text of t in the given numbering view.
func DependencyText(x *RowIndex, t *Task) string {
	rows, _ := RowsFor(x, t.Dependencies)
	return FormatDependencies(rows)
}

// ReplaceDependencies is the dependency list of t after its edit-field text
// parsed against x is applied. Rows outside x are dropped; predecessors of t
// that have no row in x are kept, since the text could not name them.
func ReplaceDependencies(x *RowIndex, t *Task, parsed []RowDependency) []Dependency {
	resolved, _ := ResolveRows(x, parsed)
	_, hidden := RowsFor(x, t.Dependencies)
	return append(resolved, hidden...)
}
