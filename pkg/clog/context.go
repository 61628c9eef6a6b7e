package clog

import (
	"context"
	"maps"
	"sync"
)

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

// attributes is the mutable bag of log attributes carried by a request
// context. Handlers add to it as the request progresses and AttributesHandler
// appends it to every record logged with that context.
type attributes struct {
	mu     sync.RWMutex
	values map[string]any
}

type attributesKey struct{}

func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, attributesKey{}, &attributes{values: make(map[string]any)})
}

func fromContext(ctx context.Context) *attributes {
	a, _ := ctx.Value(attributesKey{}).(*attributes)
	return a
}

func AddAttribute(ctx context.Context, key string, value any) {
	a := fromContext(ctx)
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[key] = value
}

// AddAttributes merges attrs into the context's attributes. Nested maps are
// merged key by key.
func AddAttributes(ctx context.Context, attrs map[string]any) {
	a := fromContext(ctx)
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	merge(a.values, attrs)
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if existing, ok := dst[k].(map[string]any); ok {
			merge(existing, sub)
		} else {
			dst[k] = sub
		}
	}
}

func GetAttribute[T any](ctx context.Context, key string) T {
	var zero T
	a := fromContext(ctx)
	if a == nil {
		return zero
	}
	a.mu.RLock()
	v, ok := a.values[key].(T)
	a.mu.RUnlock()
	if !ok {
		return zero
	}
	return v
}

// GetAttributes returns a copy of the context's attributes.
func GetAttributes(ctx context.Context) map[string]any {
	a := fromContext(ctx)
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.values)
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func GetStack(ctx context.Context) string {
	return GetAttribute[string](ctx, StackAttributeKey)
}
