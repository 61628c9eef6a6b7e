package gantt

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kev1903/skrobakios/internal/schedule"
)

// SaveFunc persists the edited tree.
type SaveFunc func(roots []*schedule.Task) error

// Model is an interactive Gantt over one project tree. Edits are applied to
// the model's own copy and rescheduled immediately; nothing is written until
// the tree is saved.
type Model struct {
	roots    []*schedule.Task
	view     schedule.View
	opts     schedule.Options
	snap     *schedule.Snapshot
	renderer *Renderer
	save     SaveFunc

	cursor  int
	editing bool
	input   textinput.Model
	status  string
	failed  bool
	dirty   bool
}

func NewModel(roots []*schedule.Task, opts schedule.Options, save SaveFunc) (*Model, error) {
	tree, warnings, err := schedule.NewScheduler(opts.Calendar).ScheduleAll(roots)
	if err != nil {
		return nil, err
	}
	logWarnings(warnings)

	ti := textinput.New()
	ti.Prompt = "deps> "
	ti.Placeholder = "e.g. 2,3FS+1"
	ti.CharLimit = 200
	ti.Width = 40

	m := &Model{
		roots:    tree,
		view:     schedule.View{Expanded: schedule.ExpandedSet(tree)},
		opts:     opts,
		renderer: NewRenderer(int(opts.TimelineWidth)),
		save:     save,
		input:    ti,
	}
	if err := m.rebuild(); err != nil {
		return nil, err
	}
	return m, nil
}

// Tree returns the current, scheduled tree.
func (m *Model) Tree() []*schedule.Task {
	return m.roots
}

func (m *Model) Snapshot() *schedule.Snapshot {
	return m.snap
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fixed := rowWidth + titleWidth + durWidth + 2*dateWidth + depsWidth + 6
		if w := msg.Width - fixed; w > 10 {
			m.renderer.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m *Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Rows)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.toggle()
	case "c":
		m.view.Filter.HideCompleted = !m.view.Filter.HideCompleted
		m.setStatus(m.rebuild())
	case "e":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = true
		m.input.SetValue(row.Dependencies)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "w":
		m.write()
	}
	return m, nil
}

func (m *Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.SetDependencies(row.ID, m.input.Value()); err != nil {
			m.setStatus(err)
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.status = fmt.Sprintf("row %d dependencies set", row.RowNumber)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// SetDependencies replaces the dependencies of the task with id from edit
// field text numbered against the current view. Predecessors hidden by the
// view are kept.
func (m *Model) SetDependencies(id, text string) error {
	rows := schedule.NumberingView(m.roots, m.view.Filter)
	x := schedule.NewRowIndex(rows)
	subject := x.Row(id)
	if subject == 0 {
		return fmt.Errorf("task %s is not visible", id)
	}
	deps := schedule.ParseDependencies(text)
	if result := schedule.ValidateDependencies(m.roots, rows, subject, deps); !result.IsValid {
		return fmt.Errorf("%s", strings.Join(result.Messages(), "; "))
	}

	tree := schedule.CloneTree(m.roots)
	t := schedule.Find(tree, id)
	t.Dependencies = schedule.ReplaceDependencies(x, t, deps)

	tree, warnings, err := schedule.NewScheduler(m.opts.Calendar).Propagate(tree, id)
	if err != nil {
		return err
	}
	logWarnings(warnings)
	prev := m.roots
	m.roots = tree
	if err := m.rebuild(); err != nil {
		m.roots = prev
		return err
	}
	m.dirty = true
	return nil
}

func (m *Model) toggle() {
	row, ok := m.selected()
	if !ok || !row.HasChildren {
		return
	}
	expanded := !m.view.Expanded[row.ID]
	m.view.Expanded[row.ID] = expanded
	if t := schedule.Find(m.roots, row.ID); t != nil {
		t.Expanded = expanded
	}
	m.dirty = true
	m.setStatus(m.rebuild())
}

func (m *Model) write() {
	if m.save == nil {
		m.setStatus(fmt.Errorf("read only"))
		return
	}
	if err := m.save(m.roots); err != nil {
		m.setStatus(err)
		return
	}
	m.dirty = false
	m.status = "saved"
}

func (m *Model) rebuild() error {
	snap, err := schedule.Build(m.roots, m.view, m.opts)
	if err != nil {
		return err
	}
	m.snap = snap
	if m.cursor >= len(snap.Rows) {
		m.cursor = len(snap.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return nil
}

func (m *Model) selected() (schedule.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Rows) {
		return schedule.Row{}, false
	}
	return m.snap.Rows[m.cursor], true
}

func (m *Model) setStatus(err error) {
	m.failed = err != nil
	m.status = ""
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) View() string {
	parts := []string{m.renderer.render(m.snap, m.cursor)}
	if m.editing {
		parts = append(parts, m.input.View())
	}
	if m.status != "" {
		style := m.renderer.Styles.Muted
		if m.failed {
			style = m.renderer.Styles.Error
		}
		parts = append(parts, style.Render(m.status))
	}
	help := "↑/↓ move  enter expand  c hide completed  e edit deps  w save  q quit"
	if m.dirty {
		help += "  [modified]"
	}
	parts = append(parts, m.renderer.Styles.Muted.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func logWarnings(warnings []schedule.Warning) {
	for _, w := range warnings {
		slog.Warn("dependency skipped", "task_id", w.TaskID, "predecessor_id", w.PredecessorID, "reason", w.Message)
	}
}
