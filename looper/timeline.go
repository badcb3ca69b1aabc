package looper

import (
	"sync"
	"time"

	"midi-looper/midi"
)

// Timeline is the ordered event list of one loop. It only ever grows, and
// only while its loop records; existing entries are never rewritten, so a
// snapshot taken at any point stays valid.
type Timeline struct {
	mu     sync.RWMutex
	events []midi.Event
}

func NewTimeline(events ...midi.Event) *Timeline {
	t := &Timeline{}
	t.Append(events...)
	return t
}

func (t *Timeline) Append(events ...midi.Event) {
	if len(events) == 0 {
		return
	}
	t.mu.Lock()
	t.events = append(t.events, events...)
	t.mu.Unlock()
}

// snapshot returns the current events without copying; the capacity is
// clipped so a later Append can't write into the returned slice.
func (t *Timeline) snapshot() []midi.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.events[:len(t.events):len(t.events)]
}

// Events returns a copy of the events in playback order
func (t *Timeline) Events() []midi.Event {
	s := t.snapshot()
	out := make([]midi.Event, len(s))
	copy(out, s)
	return out
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// Actions counts the non-wait events
func (t *Timeline) Actions() int {
	n := 0
	for _, e := range t.snapshot() {
		if !e.IsWait() {
			n++
		}
	}
	return n
}

// Duration is the length of one pass: the sum of all waits
func (t *Timeline) Duration() time.Duration {
	var d time.Duration
	for _, e := range t.snapshot() {
		if e.IsWait() {
			d += e.Duration
		}
	}
	return d
}

// Describe lists the events, e.g. ["NoteOn 60 100" "Wait 250" "NoteOff 60 100"]
func (t *Timeline) Describe() []string {
	s := t.snapshot()
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Describe()
	}
	return out
}
