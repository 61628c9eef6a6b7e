package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/pkg/clog"
)

var (
	app      = kingpin.New("skrobakios", "Schedule construction work breakdown structures")
	logLevel = app.Flag("log-level", "Log level").Default("info").Enum("debug", "info", "warn", "error")
	today    = app.Flag("today", "Date treated as today (YYYY-MM-DD)").String()

	// Schedule commands
	scheduleCmd           = app.Command("schedule", "Reschedule a project file and print its rows")
	scheduleFile          = scheduleCmd.Arg("file", "Project file").Required().ExistingFile()
	scheduleHideCompleted = scheduleCmd.Flag("hide-completed", "Hide completed tasks").Bool()
	scheduleCollapse      = scheduleCmd.Flag("collapse", "Collapse the task with this id").Strings()
	scheduleWrite         = scheduleCmd.Flag("write", "Write the rescheduled dates back to the file").Bool()
	scheduleDiff          = scheduleCmd.Flag("diff", "Print a diff of the rescheduled file instead of rows").Bool()

	watchCmd  = app.Command("watch", "Reschedule a project file whenever it changes")
	watchFile = watchCmd.Arg("file", "Project file").Required().ExistingFile()

	// Gantt commands
	ganttCmd   = app.Command("gantt", "Draw a static Gantt chart")
	ganttFile  = ganttCmd.Arg("file", "Project file").Required().ExistingFile()
	ganttWidth = ganttCmd.Flag("width", "Timeline width in cells").Default("60").Int()

	tuiCmd  = app.Command("tui", "Open an interactive Gantt chart")
	tuiFile = tuiCmd.Arg("file", "Project file").Required().ExistingFile()

	// Dependency commands
	depsCmd = app.Command("deps", "Dependency text tools")

	depsParseCmd  = depsCmd.Command("parse", "Parse and normalize dependency text")
	depsParseText = depsParseCmd.Arg("text", "Dependency text, e.g. 2,3FS+1").Required().String()

	depsCheckCmd  = depsCmd.Command("check", "Validate dependency text for a row of a project file")
	depsCheckFile = depsCheckCmd.Arg("file", "Project file").Required().ExistingFile()
	depsCheckRow  = depsCheckCmd.Arg("row", "Row number of the task").Required().Int()
	depsCheckText = depsCheckCmd.Arg("text", "Dependency text").Required().String()

	// Export commands
	exportCmd         = app.Command("export-calendar", "Publish scheduled tasks to Google Calendar")
	exportFile        = exportCmd.Arg("file", "Project file").Required().ExistingFile()
	exportCredentials = exportCmd.Flag("credentials", "Service account key file").Envar("SKROBAKIOS_GOOGLE_CREDENTIALS").Required().ExistingFile()
	exportCalendar    = exportCmd.Flag("calendar", "Calendar id").Envar("SKROBAKIOS_GOOGLE_CALENDAR").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var level slog.Level
	_ = level.UnmarshalText([]byte(*logLevel))
	slog.SetDefault(slog.New(clog.NewAttributesHandler(clog.NewTextHandler(os.Stderr, clog.WithLevel(level)))))

	opts, err := options(*today)
	if err != nil {
		app.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case scheduleCmd.FullCommand():
		err = runSchedule(os.Stdout, *scheduleFile, scheduleFlags{
			hideCompleted: *scheduleHideCompleted,
			collapse:      *scheduleCollapse,
			write:         *scheduleWrite,
			diff:          *scheduleDiff,
		}, opts)
	case watchCmd.FullCommand():
		err = runWatch(ctx, os.Stdout, *watchFile, opts)
	case ganttCmd.FullCommand():
		err = runGantt(os.Stdout, *ganttFile, *ganttWidth, opts)
	case tuiCmd.FullCommand():
		err = runTUI(*tuiFile, opts)
	case depsParseCmd.FullCommand():
		runDepsParse(os.Stdout, *depsParseText)
	case depsCheckCmd.FullCommand():
		var ok bool
		ok, err = runDepsCheck(os.Stdout, *depsCheckFile, *depsCheckRow, *depsCheckText)
		if err == nil && !ok {
			os.Exit(1)
		}
	case exportCmd.FullCommand():
		err = runExport(ctx, os.Stdout, *exportFile, *exportCredentials, *exportCalendar, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func options(todayFlag string) (schedule.Options, error) {
	opts := schedule.Options{Calendar: schedule.CalendarDays{}}
	if todayFlag != "" {
		d, err := schedule.ParseDate(todayFlag)
		if err != nil {
			return opts, fmt.Errorf("invalid --today: %w", err)
		}
		opts.Today = d
	}
	return opts, nil
}
