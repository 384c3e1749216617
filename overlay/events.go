package overlay

import (
	"sort"
	"sync"
)

type EventType string

const (
	EventKeyDown     EventType = "keydown"
	EventPointerDown EventType = "pointerdown"
)

const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEscape    = "Escape"
)

// Event is a document level key or pointer event. InsideForm tells whether a
// pointer event landed inside the search form.
type Event struct {
	Type       EventType
	Key        string
	InsideForm bool
}

type Listener func(e Event)

type registration struct {
	eventType EventType
	listener  Listener
}

// EventTarget is the document the overlay subscribes to while visible.
type EventTarget struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]registration
}

func NewEventTarget() *EventTarget {
	return &EventTarget{listeners: map[int]registration{}}
}

// AddListener registers l for events of type t. The returned function removes
// it and is safe to call more than once.
func (t *EventTarget) AddListener(eventType EventType, l Listener) (remove func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = registration{eventType: eventType, listener: l}
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}

func (t *EventTarget) ListenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// Dispatch calls the listeners registered for e.Type in registration order.
// A listener removed by an earlier one during the same dispatch is skipped.
func (t *EventTarget) Dispatch(e Event) {
	t.mu.Lock()
	ids := make([]int, 0, len(t.listeners))
	for id, r := range t.listeners {
		if r.eventType == e.Type {
			ids = append(ids, id)
		}
	}
	t.mu.Unlock()
	sort.Ints(ids)

	for _, id := range ids {
		t.mu.Lock()
		r, ok := t.listeners[id]
		t.mu.Unlock()
		if ok {
			r.listener(e)
		}
	}
}
