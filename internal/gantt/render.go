// Package gantt draws schedule snapshots in the terminal: a static table with
// timeline bars and an interactive model that edits a project tree in place.
package gantt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kev1903/skrobakios/internal/schedule"
)

// DefaultWidth is the number of terminal cells given to the timeline.
const DefaultWidth = 60

const (
	rowWidth   = 4
	titleWidth = 28
	durWidth   = 4
	dateWidth  = 10
	depsWidth  = 12
)

type Styles struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Critical lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Row:      lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Background(lipgloss.Color("237")),
		Critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// Renderer turns snapshots into text.
type Renderer struct {
	Width  int
	Styles Styles
}

func NewRenderer(width int) *Renderer {
	if width < 1 {
		width = DefaultWidth
	}
	return &Renderer{Width: width, Styles: DefaultStyles()}
}

// Render draws the whole snapshot with no selected row.
func (r *Renderer) Render(snap *schedule.Snapshot) string {
	return r.render(snap, -1)
}

func (r *Renderer) render(snap *schedule.Snapshot, selected int) string {
	lines := make([]string, 0, len(snap.Rows)+3)
	lines = append(lines, r.header(snap))
	for i, row := range snap.Rows {
		lines = append(lines, r.row(row, snap.Bounds, i == selected))
	}
	lines = append(lines, "", r.summary(snap))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (r *Renderer) header(snap *schedule.Snapshot) string {
	cols := columns("#", "Task", "Dur", "Start", "End", "Deps")
	return r.Styles.Header.Render(cols + " " + monthRuler(snap.Months, snap.Bounds, r.Width))
}

func (r *Renderer) row(row schedule.Row, b schedule.Bounds, selected bool) string {
	marker := "  "
	if row.HasChildren {
		marker = "▸ "
		if row.Expanded {
			marker = "▾ "
		}
	}
	title := strings.Repeat("  ", row.Level) + marker + row.Title
	deps := row.Dependencies
	if row.HiddenDependencies > 0 {
		deps += "+" + strconv.Itoa(row.HiddenDependencies) + "h"
	}
	cols := columns(
		strconv.Itoa(row.RowNumber),
		title,
		strconv.Itoa(row.Duration)+"d",
		row.StartDate.String(),
		row.EndDate.String(),
		deps,
	)

	style := r.Styles.Row
	if row.Critical {
		style = r.Styles.Critical
	}
	if selected {
		style = style.Inherit(r.Styles.Selected)
	}
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(schedule.GenerateTaskColor(row.ID).Hex()))
	return style.Render(cols+" ") + barStyle.Render(bar(row, b, r.Width))
}

func (r *Renderer) summary(snap *schedule.Snapshot) string {
	s := snap.Stats
	return r.Styles.Muted.Render(fmt.Sprintf(
		"%d tasks, %d completed, %d remaining, %.0f%% average progress, critical path %d tasks, %s .. %s",
		s.TotalTasks, s.CompletedTasks, s.RemainingTasks, s.AverageProgress,
		len(s.CriticalPath), snap.Bounds.StartDate, snap.Bounds.EndDate,
	))
}

func columns(row, title, dur, start, end, deps string) string {
	return strings.Join([]string{
		pad(row, rowWidth, true),
		pad(title, titleWidth, false),
		pad(dur, durWidth, true),
		pad(start, dateWidth, false),
		pad(end, dateWidth, false),
		pad(deps, depsWidth, false),
	}, " ")
}

// pad truncates or space-fills s to exactly n cells.
func pad(s string, n int, right bool) string {
	if w := lipgloss.Width(s); w > n {
		runes := []rune(s)
		for lipgloss.Width(string(runes))+1 > n && len(runes) > 0 {
			runes = runes[:len(runes)-1]
		}
		return string(runes) + "…"
	}
	fill := strings.Repeat(" ", n-lipgloss.Width(s))
	if right {
		return fill + s
	}
	return s + fill
}

// barCells maps a date span to a run of timeline cells. A visible span
// always covers at least one cell.
func barCells(start, end schedule.Date, b schedule.Bounds, width int) (left, n int) {
	pos := schedule.CalculateBarPosition(start, end, b.StartDate, b.EndDate)
	if pos.Width == 0 {
		return 0, 0
	}
	w := float64(width)
	left = int(math.Floor(pos.Left * w))
	n = int(math.Round(pos.Width * w))
	if n < 1 {
		n = 1
	}
	if left+n > width {
		left = width - n
	}
	return left, n
}

func bar(row schedule.Row, b schedule.Bounds, width int) string {
	left, n := barCells(row.StartDate, row.EndDate, b, width)
	cells := []rune(strings.Repeat(" ", width))
	done := n * row.Progress / 100
	for i := 0; i < n; i++ {
		if i < done {
			cells[left+i] = '█'
		} else {
			cells[left+i] = '▒'
		}
	}
	return string(cells)
}

// monthRuler labels the first cell of every month on the timeline.
func monthRuler(months []schedule.MonthGroup, b schedule.Bounds, width int) string {
	cells := []rune(strings.Repeat(" ", width))
	next := 0
	for _, m := range months {
		left, _ := barCells(m.Start, m.Start, b, width)
		if left < next {
			continue
		}
		label := []rune(m.Start.Time().Format("Jan 06"))
		for i, c := range label {
			if left+i >= width {
				break
			}
			cells[left+i] = c
		}
		next = left + len(label) + 1
	}
	return string(cells)
}
