package application

import (
	"sync"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// TimelineEvent tells dependent views of a document to re-render.
type TimelineEvent struct {
	Document model.DocumentRef
	ReviewID string
	At       time.Time
}

// TimelineEvents fans timeline refresh events out to subscribers of a
// document. Slow subscribers miss events rather than block publishers.
type TimelineEvents struct {
	mu     sync.Mutex
	nextID int
	subs   map[model.DocumentRef]map[int]chan TimelineEvent
}

// NewTimelineEvents creates an empty broadcaster.
func NewTimelineEvents() *TimelineEvents {
	return &TimelineEvents{subs: make(map[model.DocumentRef]map[int]chan TimelineEvent)}
}

// Subscribe registers for events on ref. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (e *TimelineEvents) Subscribe(ref model.DocumentRef) (<-chan TimelineEvent, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++

	ch := make(chan TimelineEvent, 8)
	if e.subs[ref] == nil {
		e.subs[ref] = make(map[int]chan TimelineEvent)
	}
	e.subs[ref][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs[ref], id)
			if len(e.subs[ref]) == 0 {
				delete(e.subs, ref)
			}
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of its document.
func (e *TimelineEvents) Publish(ev TimelineEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs[ev.Document] {
		select {
		case ch <- ev:
		default:
		}
	}
}
