package schedule

// Filter narrows the rows produced by Flatten.
type Filter struct {
	HideCompleted bool `json:"hide_completed"`
}

func (f Filter) excludes(t *Task) bool {
	return f.HideCompleted && t.IsCompleted()
}

// Flatten returns the pre-order sequence of rows: a task, then its children
// when its id is in expanded. Completed tasks and their subtrees are skipped
// when the filter hides completed work. The returned slice shares the tasks
// of the input tree.
func Flatten(roots []*Task, filter Filter, expanded map[string]bool) []*Task {
	var rows []*Task
	var visit func(ts []*Task)
	visit = func(ts []*Task) {
		for _, t := range ts {
			if filter.excludes(t) {
				continue
			}
			rows = append(rows, t)
			if expanded[t.ID] {
				visit(t.Children)
			}
		}
	}
	visit(roots)
	return rows
}

// NumberingView is the sequence dependency text is edited against: every
// task that passes the filter, regardless of collapse state.
func NumberingView(roots []*Task, filter Filter) []*Task {
	var rows []*Task
	Walk(roots, func(t *Task, _ *Task) bool {
		if filter.excludes(t) {
			return false
		}
		rows = append(rows, t)
		return true
	})
	return rows
}

// AssignRowNumbers writes 1-based sequential row numbers onto rows.
func AssignRowNumbers(rows []*Task) {
	for i, t := range rows {
		t.RowNumber = i + 1
	}
}

// RowIndex resolves row numbers of a numbering view in both directions.
type RowIndex struct {
	rows  []*Task
	rowOf map[string]int
}

func NewRowIndex(rows []*Task) *RowIndex {
	x := &RowIndex{
		rows:  rows,
		rowOf: make(map[string]int, len(rows)),
	}
	for i, t := range rows {
		x.rowOf[t.ID] = i + 1
	}
	return x
}

// Task returns the task at the 1-based row, or nil when out of range.
func (x *RowIndex) Task(row int) *Task {
	if row < 1 || row > len(x.rows) {
		return nil
	}
	return x.rows[row-1]
}

// Row returns the row of the task with id, or 0 when it is not in the view.
func (x *RowIndex) Row(id string) int {
	return x.rowOf[id]
}

func (x *RowIndex) Len() int {
	return len(x.rows)
}

func (x *RowIndex) Rows() []*Task {
	return x.rows
}
