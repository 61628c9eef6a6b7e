// Package panicerr turns panics inside worker functions into errors so a
// single bad task cannot take down a pool.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

func Safe(fn func() error) func() error {
	return func() error {
		return try(fn)
	}
}

func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return try(func() error { return fn(ctx) })
	}
}

func try(fn func() error) error {
	var (
		catcher panics.Catcher
		err     error
	)
	catcher.Try(func() {
		err = fn()
	})
	if err != nil {
		return err
	}
	return catcher.Recovered().AsError()
}
