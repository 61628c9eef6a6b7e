package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kev1903/skrobakios/internal/calendarexport"
	"github.com/kev1903/skrobakios/internal/projectfile"
	"github.com/kev1903/skrobakios/internal/schedule"
)

func runExport(ctx context.Context, w io.Writer, file, credentials, calendarID string, opts schedule.Options) error {
	p, err := projectfile.Read(file)
	if err != nil {
		return err
	}
	snap, err := build(p, scheduleFlags{}, opts)
	if err != nil {
		return err
	}
	srv, err := calendarexport.NewService(ctx, credentials)
	if err != nil {
		return err
	}
	res, err := calendarexport.New(srv, calendarID).Export(ctx, p.Name, snap.Tree)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created %d, updated %d, unchanged %d, skipped %d\n", res.Created, res.Updated, res.Unchanged, res.Skipped)
	return nil
}
