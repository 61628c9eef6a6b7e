package schedule

func day(s string) Date {
	return MustParseDate(s)
}

func newTask(id string, duration int, children ...*Task) *Task {
	return &Task{ID: id, Title: "Task " + id, Duration: duration, Children: children}
}

func dated(t *Task, start string) *Task {
	t.StartDate = day(start)
	t.EndDate = CalendarDays{}.EndFor(t.StartDate, t.Duration)
	return t
}

func dependsOn(t *Task, deps ...Dependency) *Task {
	t.Dependencies = append(t.Dependencies, deps...)
	return t
}

func fs(pred string, lag int) Dependency {
	return Dependency{PredecessorID: pred, Relationship: FinishToStart, LagDays: lag}
}

func ids(tasks []*Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
