package schedule

// View is the presentation state a snapshot is built for.
type View struct {
	Filter   Filter
	Expanded map[string]bool
}

type Options struct {
	Calendar      Calendar
	Today         Date
	FallbackDays  int
	TimelineWidth float64
}

// Row is one visible line of the Gantt table.
type Row struct {
	Task               *Task    `json:"-"`
	ID                 string   `json:"id"`
	RowNumber          int      `json:"row_number"`
	Title              string   `json:"title"`
	Level              int      `json:"level"`
	Duration           int      `json:"duration"`
	Progress           int      `json:"progress"`
	StartDate          Date     `json:"start_date"`
	EndDate            Date     `json:"end_date"`
	Dependencies       string   `json:"dependencies"`
	HiddenDependencies int      `json:"hidden_dependencies,omitempty"`
	HasChildren        bool     `json:"has_children"`
	Expanded           bool     `json:"expanded"`
	Bar                BarStyle `json:"bar"`
	Critical           bool     `json:"critical"`
	Float              int      `json:"float"`
}

// Snapshot is the derived state of one forest for one view.
type Snapshot struct {
	Tree         []*Task             `json:"-"`
	Numbering    *RowIndex           `json:"-"`
	Rows         []Row               `json:"rows"`
	Bounds       Bounds              `json:"bounds"`
	Headers      []Header            `json:"headers"`
	Months       []MonthGroup        `json:"months"`
	Stats        ProjectStatistics   `json:"stats"`
	CriticalPath *CriticalPathResult `json:"-"`
	Warnings     []Warning           `json:"warnings,omitempty"`
}

// Build runs tree -> scheduled -> styled -> flattened+numbered on a copy of
// roots. The input forest is left untouched.
func Build(roots []*Task, view View, opts Options) (*Snapshot, error) {
	if opts.Today.IsZero() {
		opts.Today = Today()
	}
	s := NewScheduler(opts.Calendar)

	tree, warnings, err := s.ScheduleAll(roots)
	if err != nil {
		return nil, err
	}
	FixLevels(tree)

	bounds := DeriveBounds(tree, opts.Today, opts.FallbackDays)
	StyleBars(tree, bounds, opts.TimelineWidth)

	Walk(tree, func(t *Task, _ *Task) bool {
		t.RowNumber = 0
		t.Expanded = view.Expanded[t.ID]
		return true
	})
	numbering := NumberingView(tree, view.Filter)
	AssignRowNumbers(numbering)
	x := NewRowIndex(numbering)

	cp, err := s.ComputeCriticalPath(tree)
	if err != nil {
		return nil, err
	}
	stats := countTasks(tree)
	stats.CriticalPath = cp.CriticalTaskIDs

	visible := Flatten(tree, view.Filter, view.Expanded)
	rows := make([]Row, len(visible))
	for i, t := range visible {
		deps, hidden := RowsFor(x, t.Dependencies)
		timing := cp.Timings[t.ID]
		rows[i] = Row{
			Task:               t,
			ID:                 t.ID,
			RowNumber:          t.RowNumber,
			Title:              t.Title,
			Level:              t.Level,
			Duration:           t.Duration,
			Progress:           t.Progress,
			StartDate:          t.StartDate,
			EndDate:            t.EndDate,
			Dependencies:       FormatDependencies(deps),
			HiddenDependencies: len(hidden),
			HasChildren:        t.HasChildren(),
			Expanded:           t.Expanded,
			Bar:                t.Bar,
			Critical:           timing.Critical,
			Float:              timing.Float,
		}
	}

	headers := GenerateTimelineHeaders(bounds)
	return &Snapshot{
		Tree:         tree,
		Numbering:    x,
		Rows:         rows,
		Bounds:       bounds,
		Headers:      headers,
		Months:       GroupByMonth(headers),
		Stats:        stats,
		CriticalPath: cp,
		Warnings:     warnings,
	}, nil
}
