package session

import (
	"context"
	"sync"

	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/internal/task"
)

// Registry keeps one session per open project.
type Registry struct {
	repo task.Repository
	bus  *eventbus.Bus
	opts Options

	mu       sync.Mutex
	sessions map[string]*opening
}

// opening is a session being loaded. ready is closed once s or err is set.
type opening struct {
	ready chan struct{}
	s     *Session
	err   error
}

func (o *opening) loaded() *Session {
	select {
	case <-o.ready:
		if o.err == nil {
			return o.s
		}
	default:
	}
	return nil
}

func NewRegistry(repo task.Repository, bus *eventbus.Bus, opts Options) *Registry {
	return &Registry{
		repo:     repo,
		bus:      bus,
		opts:     opts,
		sessions: make(map[string]*opening),
	}
}

// Open returns the project's session, loading it from the store on first
// use. Concurrent callers for the same project share one load; loads of
// other projects do not wait for it.
func (r *Registry) Open(ctx context.Context, projectID string) (*Session, error) {
	r.mu.Lock()
	o, ok := r.sessions[projectID]
	if !ok {
		o = &opening{ready: make(chan struct{})}
		r.sessions[projectID] = o
	}
	r.mu.Unlock()

	if !ok {
		s := New(projectID, r.repo, r.bus, r.opts)
		if err := s.Reload(ctx); err != nil {
			o.err = err
			r.mu.Lock()
			if r.sessions[projectID] == o {
				delete(r.sessions, projectID)
			}
			r.mu.Unlock()
		} else {
			o.s = s
		}
		close(o.ready)
	}

	select {
	case <-o.ready:
		return o.s, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close drops the project's session after its writes have finished.
func (r *Registry) Close(projectID string) {
	r.mu.Lock()
	o, ok := r.sessions[projectID]
	delete(r.sessions, projectID)
	r.mu.Unlock()
	if !ok {
		return
	}
	<-o.ready
	if o.err == nil {
		o.s.Wait()
	}
}

// Wait blocks until every open session has finished writing.
func (r *Registry) Wait() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, o := range r.sessions {
		if s := o.loaded(); s != nil {
			sessions = append(sessions, s)
		}
	}
	r.mu.Unlock()
	for _, s := range sessions {
		s.Wait()
	}
}
