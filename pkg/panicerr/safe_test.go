package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafe(t *testing.T) {
	assert.NoError(t, Safe(func() error { return nil })())

	sentinel := errors.New("boom")
	assert.ErrorIs(t, Safe(func() error { return sentinel })(), sentinel)

	err := Safe(func() error { panic("kaboom") })()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestSafeContext(t *testing.T) {
	err := SafeContext(func(ctx context.Context) error {
		var m map[string]int
		m["x"] = 1
		return nil
	})(context.Background())
	assert.Error(t, err)
}
