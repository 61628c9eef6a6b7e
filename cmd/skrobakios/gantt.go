package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kev1903/skrobakios/internal/gantt"
	"github.com/kev1903/skrobakios/internal/projectfile"
	"github.com/kev1903/skrobakios/internal/schedule"
)

func runGantt(w io.Writer, file string, width int, opts schedule.Options) error {
	p, err := projectfile.Read(file)
	if err != nil {
		return err
	}
	snap, err := build(p, scheduleFlags{}, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, gantt.NewRenderer(width).Render(snap))
	return nil
}

func runTUI(file string, opts schedule.Options) error {
	p, err := projectfile.Read(file)
	if err != nil {
		return err
	}
	m, err := gantt.NewModel(p.Roots, opts, func(roots []*schedule.Task) error {
		return projectfile.Write(file, &projectfile.Project{Name: p.Name, Roots: roots})
	})
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
