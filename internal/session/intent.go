package session

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/kev1903/skrobakios/internal/eventbus"
	"github.com/kev1903/skrobakios/internal/task"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/panicerr"
)

// intent is the not yet persisted change to one task. Patches from later
// edits are merged in field by field; version is the session clock of the
// latest one.
type intent struct {
	patch   task.Patch
	create  bool
	delete  bool
	version int64
}

// Pending reports the ids of tasks with changes that have not reached the
// store, in the order they were last changed.
func (s *Session) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Session) pendingLocked() []string {
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.pending[ids[i]].version < s.pending[ids[j]].version
	})
	return ids
}

// stageLocked records the differences between two item sets as intents and
// returns the ids that changed.
func (s *Session) stageLocked(before, after []*task.Item) []string {
	prev := make(map[string]*task.Item, len(before))
	for _, it := range before {
		prev[it.ID] = it
	}
	var ids []string
	for _, it := range after {
		old, ok := prev[it.ID]
		delete(prev, it.ID)
		if !ok {
			s.record(it.ID, task.Diff(&task.Item{}, it), true, false)
			ids = append(ids, it.ID)
			continue
		}
		if p := task.Diff(old, it); !p.IsEmpty() {
			s.record(it.ID, p, false, false)
			ids = append(ids, it.ID)
		}
	}
	gone := make([]string, 0, len(prev))
	for id := range prev {
		gone = append(gone, id)
	}
	sort.Strings(gone)
	for _, id := range gone {
		s.record(id, task.Patch{}, false, true)
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) record(id string, p task.Patch, create, del bool) {
	s.clock++
	in, ok := s.pending[id]
	if !ok {
		in = &intent{}
		s.pending[id] = in
	}
	if del {
		in.delete = true
		in.patch = task.Patch{}
	} else {
		in.patch = in.patch.Merge(p)
		in.create = in.create || create
	}
	in.version = s.clock
}

// replayLocked applies the pending intents to a fresh store listing. Local
// intents win field by field over what the store returned.
func (s *Session) replayLocked(items []*task.Item) []*task.Item {
	byID := make(map[string]*task.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ids := s.pendingLocked()
	out := items[:0:0]
	deleted := make(map[string]bool)
	for _, id := range ids {
		in := s.pending[id]
		it, ok := byID[id]
		switch {
		case in.delete:
			deleted[id] = true
		case ok:
			in.patch.Apply(it)
		case in.create:
			it = &task.Item{ID: id, ProjectID: s.projectID}
			in.patch.Apply(it)
			byID[id] = it
			items = append(items, it)
		default:
			// Removed remotely; the edit has nothing left to apply to.
			delete(s.pending, id)
		}
	}
	for _, it := range items {
		if !deleted[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// flush writes the intents of ids in the background, at most
// SaveConcurrency at a time.
func (s *Session) flush(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.saves.Go(func() {
		p := pool.New().WithMaxGoroutines(s.opts.SaveConcurrency).WithContext(ctx)
		for _, id := range ids {
			p.Go(panicerr.SafeContext(func(ctx context.Context) error {
				return s.save(ctx, id)
			}))
		}
		_ = p.Wait()
	})
}

// save writes the pending intent of one task. Writes for the same task are
// serialised: a save that finds another in flight leaves the work to it, and
// the one in flight goes again when the intent changed underneath it.
func (s *Session) save(ctx context.Context, id string) error {
	for {
		s.mu.Lock()
		in, ok := s.pending[id]
		if !ok || s.inflight[id] {
			s.mu.Unlock()
			return nil
		}
		s.inflight[id] = true
		snapshot := *in
		s.mu.Unlock()

		err := s.write(ctx, id, snapshot)

		s.mu.Lock()
		delete(s.inflight, id)
		cur, ok := s.pending[id]
		newer := ok && cur.version != snapshot.version
		if err == nil && ok && !newer {
			delete(s.pending, id)
		}
		s.mu.Unlock()

		if newer {
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to save task", "project_id", s.projectID, "task_id", id, "error", err)
			s.bus.PublishNew(eventbus.EventSaveFailed, s.projectID, id, err.Error())
			return err
		}
		s.bus.PublishNew(eventbus.EventTaskSaved, s.projectID, id, strings.Join(snapshot.patch.Fields(), ","))
		return nil
	}
}

func (s *Session) write(ctx context.Context, id string, in intent) error {
	if in.delete {
		err := s.repo.Delete(ctx, s.projectID, id)
		if cerr.IsCode(err, cerr.NotFound) {
			return nil
		}
		return err
	}

	it, err := s.repo.Get(ctx, s.projectID, id)
	switch {
	case cerr.IsCode(err, cerr.NotFound) && in.create:
		it = &task.Item{ID: id, ProjectID: s.projectID}
		in.patch.Apply(it)
		return s.repo.Create(ctx, it)
	case err != nil:
		return err
	}
	in.patch.Apply(it)
	return s.repo.Update(ctx, it)
}
