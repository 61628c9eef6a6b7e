package schedule

import "math"

// DefaultFallbackDays is the width of the timeline when no task has dates.
const DefaultFallbackDays = 30

// Bounds is the inclusive date range of the project timeline.
type Bounds struct {
	StartDate Date `json:"start_date"`
	EndDate   Date `json:"end_date"`
}

func (b Bounds) Days() int {
	if b.StartDate.IsZero() || b.EndDate.IsZero() || b.EndDate.Before(b.StartDate) {
		return 0
	}
	return b.EndDate.DaysSince(b.StartDate) + 1
}

// DeriveBounds spans the earliest start to the latest end over every task in
// the forest. With no dated task it falls back to fallbackDays from today.
func DeriveBounds(roots []*Task, today Date, fallbackDays int) Bounds {
	var b Bounds
	Walk(roots, func(t *Task, _ *Task) bool {
		if !t.StartDate.IsZero() {
			b.StartDate = minDate(b.StartDate, t.StartDate)
			b.EndDate = maxDate(b.EndDate, t.StartDate)
		}
		if !t.EndDate.IsZero() {
			b.StartDate = minDate(b.StartDate, t.EndDate)
			b.EndDate = maxDate(b.EndDate, t.EndDate)
		}
		return true
	})
	if b.StartDate.IsZero() {
		if fallbackDays < 1 {
			fallbackDays = DefaultFallbackDays
		}
		return Bounds{StartDate: today, EndDate: today.AddDays(fallbackDays - 1)}
	}
	return b
}

type Header struct {
	Date  Date   `json:"date"`
	Label string `json:"label"`
}

// GenerateTimelineHeaders returns one header per day from bounds.StartDate
// to bounds.EndDate inclusive.
func GenerateTimelineHeaders(bounds Bounds) []Header {
	n := bounds.Days()
	headers := make([]Header, 0, n)
	for i := 0; i < n; i++ {
		d := bounds.StartDate.AddDays(i)
		headers = append(headers, Header{Date: d, Label: d.Time().Format("Jan 2")})
	}
	return headers
}

type MonthGroup struct {
	Label string `json:"label"`
	Start Date   `json:"start"`
	Days  int    `json:"days"`
}

// GroupByMonth folds consecutive day headers into calendar months.
func GroupByMonth(headers []Header) []MonthGroup {
	var groups []MonthGroup
	for _, h := range headers {
		n := len(groups)
		if n > 0 && groups[n-1].Start.Year == h.Date.Year && groups[n-1].Start.Month == h.Date.Month {
			groups[n-1].Days++
			continue
		}
		groups = append(groups, MonthGroup{
			Label: h.Date.Time().Format("January 2006"),
			Start: h.Date,
			Days:  1,
		})
	}
	return groups
}

// BarPosition is a bar's placement as fractions of the timeline width.
type BarPosition struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// CalculateBarPosition maps a task's inclusive date span onto the bounds.
// The result always satisfies 0 <= Left <= 1 and Left+Width <= 1; a task
// entirely outside the bounds gets a zero-width bar at the nearest edge.
func CalculateBarPosition(taskStart, taskEnd, boundsStart, boundsEnd Date) BarPosition {
	total := Bounds{StartDate: boundsStart, EndDate: boundsEnd}.Days()
	if total == 0 || taskStart.IsZero() {
		return BarPosition{}
	}
	if taskEnd.IsZero() || taskEnd.Before(taskStart) {
		taskEnd = taskStart
	}
	if taskEnd.Before(boundsStart) {
		return BarPosition{Left: 0, Width: 0}
	}
	if taskStart.After(boundsEnd) {
		return BarPosition{Left: 1, Width: 0}
	}
	start := maxDate(taskStart, boundsStart)
	end := minDate(taskEnd, boundsEnd)
	left := float64(start.DaysSince(boundsStart)) / float64(total)
	width := float64(end.DaysSince(start)+1) / float64(total)
	left = clamp01(left)
	width = math.Min(clamp01(width), 1-left)
	return BarPosition{Left: left, Width: width}
}

// Pixels scales the position to a timeline of totalWidth pixels.
func (p BarPosition) Pixels(totalWidth float64) (left, width float64) {
	return p.Left * totalWidth, p.Width * totalWidth
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// StyleBars recomputes the cached bar geometry of every task in the forest.
// A non-positive totalWidth keeps the geometry as fractions.
func StyleBars(roots []*Task, bounds Bounds, totalWidth float64) {
	Walk(roots, func(t *Task, _ *Task) bool {
		pos := CalculateBarPosition(t.StartDate, t.EndDate, bounds.StartDate, bounds.EndDate)
		left, width := pos.Left, pos.Width
		if totalWidth > 0 {
			left, width = pos.Pixels(totalWidth)
		}
		t.Bar = BarStyle{Left: left, Width: width, Color: GenerateTaskColor(t.ID).CSS()}
		return true
	})
}
