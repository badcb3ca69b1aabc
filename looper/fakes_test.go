package looper

import (
	"fmt"
	"sync"
	"time"

	"midi-looper/midi"
)

// fakeClock is a settable Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) SetMillis(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Duration(ms) * time.Millisecond
}

// fakeSource delivers events synchronously to plugged receivers
type fakeSource struct {
	mu        sync.Mutex
	receivers []midi.Receiver
}

func (s *fakeSource) Plug(r midi.Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers = append(s.receivers, r)
}

func (s *fakeSource) Unplug(r midi.Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.receivers {
		if existing == r {
			s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
			return
		}
	}
}

func (s *fakeSource) plugged() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receivers)
}

func (s *fakeSource) send(ev midi.Event) {
	s.mu.Lock()
	receivers := append([]midi.Receiver(nil), s.receivers...)
	s.mu.Unlock()
	for _, r := range receivers {
		midi.Deliver(r, ev)
	}
}

// fakeSink records every action it is asked to send
type fakeSink struct {
	mu  sync.Mutex
	log []string
}

func (s *fakeSink) add(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, fmt.Sprintf(format, args...))
}

func (s *fakeSink) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

func (s *fakeSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

func (s *fakeSink) NoteOn(ch, key, vel uint8)  { s.add("on %d %d %d", ch, key, vel) }
func (s *fakeSink) NoteOff(ch, key, vel uint8) { s.add("off %d %d %d", ch, key, vel) }
func (s *fakeSink) ControlChange(ch, cc, v uint8) {
	s.add("cc %d %d %d", ch, cc, v)
}
func (s *fakeSink) ProgramChange(ch, p uint8) { s.add("pc %d %d", ch, p) }
func (s *fakeSink) SysEx(data []byte)         { s.add("sysex %x", data) }
