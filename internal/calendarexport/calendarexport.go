// Package calendarexport publishes scheduled work to a Google Calendar as
// all-day events, one per dated leaf task.
package calendarexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/kev1903/skrobakios/internal/schedule"
)

// TaskIDProperty is the private extended property that ties an event to its task.
const TaskIDProperty = "skrobakios_task_id"

// NewService authenticates with a service account key file.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*calendar.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", credentialsFile, err)
	}
	cfg, err := google.JWTConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(cfg.Client(ctx))}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar client: %w", err)
	}
	return srv, nil
}

type Exporter struct {
	srv        *calendar.Service
	calendarID string
}

func New(srv *calendar.Service, calendarID string) *Exporter {
	return &Exporter{srv: srv, calendarID: calendarID}
}

// Result counts what an export did.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// Export upserts one event per leaf task with dates. Containers and undated
// tasks are skipped. Events are matched to tasks by TaskIDProperty.
func (e *Exporter) Export(ctx context.Context, projectName string, roots []*schedule.Task) (Result, error) {
	var res Result
	idx := schedule.Index(roots)
	var tasks []*schedule.Task
	schedule.Walk(roots, func(t *schedule.Task, _ *schedule.Task) bool {
		if !t.HasChildren() {
			tasks = append(tasks, t)
		}
		return true
	})

	for _, t := range tasks {
		if !t.HasDates() {
			res.Skipped++
			continue
		}
		want := EventFor(projectName, t, idx)
		existing, err := e.find(ctx, t.ID)
		if err != nil {
			return res, fmt.Errorf("error searching for event of task %s: %w", t.ID, err)
		}
		switch {
		case existing == nil:
			if _, err := e.srv.Events.Insert(e.calendarID, want).Context(ctx).Do(); err != nil {
				return res, fmt.Errorf("failed to create event for task %s: %w", t.ID, err)
			}
			res.Created++
		case needsUpdate(existing, want):
			if _, err := e.srv.Events.Update(e.calendarID, existing.Id, want).Context(ctx).Do(); err != nil {
				return res, fmt.Errorf("failed to update event %s: %w", existing.Id, err)
			}
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	slog.InfoContext(ctx, "calendar export finished",
		"calendar_id", e.calendarID,
		"created", res.Created,
		"updated", res.Updated,
		"unchanged", res.Unchanged,
		"skipped", res.Skipped,
	)
	return res, nil
}

func (e *Exporter) find(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := e.srv.Events.List(e.calendarID).
		PrivateExtendedProperty(TaskIDProperty + "=" + taskID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

// EventFor builds the all-day event of a dated task. The end date of an
// all-day event is exclusive.
func EventFor(projectName string, t *schedule.Task, idx map[string]*schedule.Task) *calendar.Event {
	summary := t.Title
	if projectName != "" {
		summary = projectName + ": " + t.Title
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Duration: %d days\nProgress: %d%%\n", t.Duration, t.Progress)
	if len(t.Dependencies) > 0 {
		desc.WriteString("After:\n")
		for _, d := range t.Dependencies {
			title := d.PredecessorID
			if p, ok := idx[d.PredecessorID]; ok {
				title = p.Title
			}
			fmt.Fprintf(&desc, "‣ %s (%s", title, d.Relationship)
			if d.LagDays != 0 {
				fmt.Fprintf(&desc, " %+dd", d.LagDays)
			}
			desc.WriteString(")\n")
		}
	}

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     colorID(t.ID),
		Start:       &calendar.EventDateTime{Date: t.StartDate.String()},
		End:         &calendar.EventDateTime{Date: t.EndDate.AddDays(1).String()},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: t.ID},
		},
	}
}

// colorID picks one of the 11 event colours from the task's hue.
func colorID(taskID string) string {
	return strconv.Itoa(schedule.GenerateTaskColor(taskID).Hue*11/360 + 1)
}

func needsUpdate(existing, want *calendar.Event) bool {
	return existing.Summary != want.Summary ||
		existing.Description != want.Description ||
		existing.ColorId != want.ColorId ||
		date(existing.Start) != want.Start.Date ||
		date(existing.End) != want.End.Date
}

func date(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	return dt.Date
}
