package main

import (
	"fmt"
	"io"

	"github.com/kev1903/skrobakios/internal/projectfile"
	"github.com/kev1903/skrobakios/internal/schedule"
)

func runDepsParse(w io.Writer, text string) {
	deps := schedule.ParseDependencies(text)
	fmt.Fprintln(w, schedule.FormatDependencies(deps))
	for _, d := range deps {
		fmt.Fprintf(w, "  row %d %s lag %+d\n", d.PredecessorRow, d.Relationship, d.LagDays)
	}
}

// runDepsCheck validates text for the task on row of the unfiltered
// numbering view and reports whether it is valid.
func runDepsCheck(w io.Writer, file string, row int, text string) (bool, error) {
	p, err := projectfile.Read(file)
	if err != nil {
		return false, err
	}
	rows := schedule.NumberingView(p.Roots, schedule.Filter{})
	if row < 1 || row > len(rows) {
		return false, fmt.Errorf("row %d does not exist (1-%d)", row, len(rows))
	}
	result := schedule.ValidateDependencies(p.Roots, rows, row, schedule.ParseDependencies(text))
	if result.IsValid {
		addedColor.Fprintf(w, "valid: %s\n", schedule.FormatDependencies(schedule.ParseDependencies(text)))
		return true, nil
	}
	for _, c := range result.Conflicts {
		removedColor.Fprintf(w, "%s: %s\n", c.Rule, c.Message)
	}
	return false, nil
}
