package domain

import (
	"sync"
	"time"
)

type Event interface {
	Type() string
	PublishedAt() time.Time
}

type NoCopy struct {
	sync.Mutex
}

// Aggregate collects events until the storage that loaded it hands them to
// the message bus.
type Aggregate struct {
	NoCopy
	events []Event
}

func (a *Aggregate) PopEvents() []Event {
	a.Lock()
	defer a.Unlock()
	events := a.events
	a.events = make([]Event, 0)
	return events
}

func (a *Aggregate) PushEvent(e Event) {
	a.Lock()
	defer a.Unlock()
	a.events = append(a.events, e)
}

// EventBase carries the timestamp shared by every event.
type EventBase struct {
	At time.Time
}

func (e EventBase) PublishedAt() time.Time {
	return e.At
}
