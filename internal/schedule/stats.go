package schedule

// ProjectStatistics is a roll-up over the whole forest, containers included.
type ProjectStatistics struct {
	TotalTasks      int      `json:"total_tasks"`
	CompletedTasks  int      `json:"completed_tasks"`
	RemainingTasks  int      `json:"remaining_tasks"`
	AverageProgress float64  `json:"average_progress"`
	CriticalPath    []string `json:"critical_path"`
}

// CalculateProjectStats counts every task in the forest. A container's own
// progress counts towards the average; it is not derived from its children.
func CalculateProjectStats(roots []*Task) (ProjectStatistics, error) {
	return defaultScheduler.CalculateProjectStats(roots)
}

func (s *Scheduler) CalculateProjectStats(roots []*Task) (ProjectStatistics, error) {
	stats := countTasks(roots)
	cp, err := s.ComputeCriticalPath(roots)
	if err != nil {
		return stats, err
	}
	stats.CriticalPath = cp.CriticalTaskIDs
	return stats, nil
}

func countTasks(roots []*Task) ProjectStatistics {
	var stats ProjectStatistics
	progress := 0
	Walk(roots, func(t *Task, _ *Task) bool {
		stats.TotalTasks++
		if t.Progress == 100 {
			stats.CompletedTasks++
		}
		progress += t.Progress
		return true
	})
	stats.RemainingTasks = stats.TotalTasks - stats.CompletedTasks
	if stats.TotalTasks > 0 {
		stats.AverageProgress = float64(progress) / float64(stats.TotalTasks)
	}
	return stats
}
