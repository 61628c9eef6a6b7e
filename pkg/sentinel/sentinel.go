// Package sentinel watches files and reports when their content changes.
// Editors and deploy tools often write through a temp file and rename, so
// the parent directory is watched and every event is settled with a short
// debounce and a checksum comparison before it is reported.
package sentinel

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is the delay after an fsnotify event before checking the checksum.
const DebounceInterval = 100 * time.Millisecond

type Sentinel struct {
	debounce time.Duration
	onChange func(path string)

	mu     sync.Mutex
	hashes map[string][sha256.Size]byte
	timers map[string]*time.Timer
}

type Option func(*Sentinel)

func WithDebounce(d time.Duration) Option {
	return func(s *Sentinel) {
		s.debounce = d
	}
}

// New returns a sentinel that calls onChange with the cleaned absolute path
// of a watched file whenever its checksum changes. onChange runs on a timer
// goroutine.
func New(onChange func(path string), opts ...Option) *Sentinel {
	s := &Sentinel{
		debounce: DebounceInterval,
		onChange: onChange,
		hashes:   make(map[string][sha256.Size]byte),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch blocks until ctx is done, reporting changes to paths.
func (s *Sentinel) Watch(ctx context.Context, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		watched[abs] = true
		if h, err := HashFile(abs); err == nil {
			s.setHash(abs, h)
		}
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
		slog.DebugContext(ctx, "watching directory", "dir", dir)
	}

	defer s.stopTimers()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if !watched[name] {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			s.schedule(ctx, name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Sentinel) schedule(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[path]; ok {
		t.Stop()
	}
	s.timers[path] = time.AfterFunc(s.debounce, func() {
		h, err := HashFile(path)
		if err != nil {
			// Mid-rename; the Create that follows schedules another check.
			slog.DebugContext(ctx, "hash after event failed", "path", path, "error", err)
			return
		}
		if !s.setHash(path, h) {
			return
		}
		slog.InfoContext(ctx, "file changed", "path", path, "sha256", fmt.Sprintf("%x", h[:8]))
		s.onChange(path)
	})
}

// setHash records h and reports whether it differs from the previous hash.
func (s *Sentinel) setHash(path string, h [sha256.Size]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.hashes[path]
	s.hashes[path] = h
	return !ok || old != h
}

func (s *Sentinel) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
}

// HashFile computes the SHA256 hash of the file at the given path.
func HashFile(path string) ([sha256.Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("hash %s: %w", path, err)
	}

	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result, nil
}
