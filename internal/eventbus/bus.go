package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventScheduleChanged EventType = "schedule_changed"
	EventTaskSaved       EventType = "task_saved"
	EventSaveFailed      EventType = "save_failed"
	EventReloaded        EventType = "reloaded"
	EventProjectCreated  EventType = "project_created"
	EventProjectDeleted  EventType = "project_deleted"
)

type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	ProjectID  string            `json:"project_id"`
	ResourceID string            `json:"resource_id,omitempty"`
	Message    string            `json:"message,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Bus fans events out to subscribers. Slow subscribers lose events rather
// than block publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, projectID, resourceID, message string) {
	b.Publish(&Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ProjectID:  projectID,
		ResourceID: resourceID,
		Message:    message,
		CreatedAt:  time.Now(),
	})
}
