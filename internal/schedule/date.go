package schedule

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time of day or location. The zero value
// means the date has not been set.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the normalized date, so NewDate(2024, 1, 32) is 2024-02-01.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current date in the local time zone.
func Today() Date {
	return DateOf(time.Now())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// DaysSince returns the number of days from o to d (negative when d is before o).
// Both dates are UTC midnights, so whole Unix days divide exactly; a
// time.Duration would overflow past about 292 years.
func (d Date) DaysSince(o Date) int {
	return int((d.Time().Unix() - o.Time().Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func (d Date) Compare(o Date) int {
	switch {
	case d.Before(o):
		return -1
	case d.After(o):
		return 1
	default:
		return 0
	}
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool {
	return o.Before(d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func maxDate(a, b Date) Date {
	if a.IsZero() || b.After(a) {
		return b
	}
	return a
}

func minDate(a, b Date) Date {
	if a.IsZero() || b.Before(a) {
		return b
	}
	return a
}

// Calendar converts between durations and dates. Durations and lags are
// counted in the calendar's unit of days.
type Calendar interface {
	// Shift moves d by n days (n may be negative).
	Shift(d Date, n int) Date
	// EndFor returns the last day of a task of the given duration starting on start.
	EndFor(start Date, duration int) Date
	// StartFor returns the first day of a task of the given duration ending on end.
	StartFor(end Date, duration int) Date
	// Span returns the inclusive number of days from start to end.
	Span(start, end Date) int
}

// CalendarDays counts every day, weekends included.
type CalendarDays struct{}

var _ Calendar = CalendarDays{}

func (CalendarDays) Shift(d Date, n int) Date {
	return d.AddDays(n)
}

func (CalendarDays) EndFor(start Date, duration int) Date {
	if duration < 1 {
		duration = 1
	}
	return start.AddDays(duration - 1)
}

func (CalendarDays) StartFor(end Date, duration int) Date {
	if duration < 1 {
		duration = 1
	}
	return end.AddDays(-(duration - 1))
}

func (CalendarDays) Span(start, end Date) int {
	return end.DaysSince(start) + 1
}
