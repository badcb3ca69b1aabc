package looper

import (
	"sync"
	"sync/atomic"
	"time"

	"midi-looper/debug"
	"midi-looper/midi"
)

// State of a loop. A loop starts out Recording and never goes back to it.
type State int

const (
	Recording State = iota
	Playing
	Stopped
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

var loopIDs atomic.Int64

// Loop is one recorded layer: it records from a source until told to stop,
// then replays what it captured on its own goroutine.
type Loop struct {
	id      int
	source  midi.Source
	channel uint8
	clock   Clock

	mu       sync.Mutex
	state    State
	timeline *Timeline
	recorder *Recorder
	player   *Player
}

// NewLoop creates a loop in the Recording state and plugs it into source.
// Captured actions replay on channel (0-15) through sink. A nil clock
// selects MonoClock.
func NewLoop(source midi.Source, sink midi.Sink, channel uint8, clock Clock) (*Loop, error) {
	if err := validate(source, sink, channel); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = MonoClock
	}

	id := int(loopIDs.Add(1))
	tl := NewTimeline()
	l := &Loop{
		id:       id,
		source:   source,
		channel:  channel,
		clock:    clock,
		state:    Recording,
		timeline: tl,
		recorder: NewRecorder(tl, channel, clock()),
		player:   NewPlayer(id, tl, sink),
	}

	source.Plug(l)
	debug.Log("loop", "loop=%d created channel=%d", id, channel)
	return l, nil
}

func validate(source midi.Source, sink midi.Sink, channel uint8) error {
	if source == nil {
		return invalidArgument(ErrNilSource, "new loop")
	}
	if sink == nil {
		return invalidArgument(ErrNilSink, "new loop")
	}
	if channel > 15 {
		return invalidArgument(ErrInvalidChannel, "new loop")
	}
	return nil
}

func (l *Loop) ID() int {
	return l.id
}

func (l *Loop) Channel() uint8 {
	return l.channel
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) IsRecording() bool {
	return l.State() == Recording
}

func (l *Loop) IsPlaying() bool {
	return l.State() == Playing
}

// Timeline exposes the loop's events (read-only use)
func (l *Loop) Timeline() *Timeline {
	return l.timeline
}

// Events returns a copy of the timeline
func (l *Loop) Events() []midi.Event {
	return l.timeline.Events()
}

// Duration is the length of one pass
func (l *Loop) Duration() time.Duration {
	return l.timeline.Duration()
}

// Passes counts complete playback passes
func (l *Loop) Passes() int64 {
	return l.player.Passes()
}

// StopRecording ends capture and unplugs from the source. Later calls are no-ops.
func (l *Loop) StopRecording() {
	l.mu.Lock()
	if l.state != Recording {
		l.mu.Unlock()
		return
	}
	l.state = Stopped
	l.mu.Unlock()

	l.source.Unplug(l)
	debug.Log("loop", "loop=%d recorded events=%d length=%s", l.id, l.timeline.Len(), l.timeline.Duration())
}

// StartPlaying moves a stopped loop to Playing
func (l *Loop) StartPlaying() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case Recording:
		return ErrRecording
	case Playing:
		return ErrAlreadyPlaying
	}
	if err := l.player.Play(); err != nil {
		return err
	}
	l.state = Playing
	return nil
}

// StopPlaying moves a playing loop to Stopped; otherwise it does nothing
func (l *Loop) StopPlaying() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Playing {
		return
	}
	l.player.Stop()
	l.state = Stopped
}

// Info is a point-in-time summary for display
type Info struct {
	ID      int
	State   State
	Channel uint8
	Events  int
	Actions int
	Length  time.Duration
	Passes  int64
}

func (l *Loop) Info() Info {
	return Info{
		ID:      l.id,
		State:   l.State(),
		Channel: l.channel,
		Events:  l.timeline.Len(),
		Actions: l.timeline.Actions(),
		Length:  l.timeline.Duration(),
		Passes:  l.player.Passes(),
	}
}

// capture is the common path of the receiver callbacks. The timestamp is
// taken on arrival; anything arriving after recording stopped is dropped.
func (l *Loop) capture(ev midi.Event) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Recording {
		return
	}
	l.recorder.Capture(ev, now)
}

func (l *Loop) NoteOnReceived(key, velocity uint8) {
	l.capture(midi.NoteOnEvent(l.channel, key, velocity))
}

func (l *Loop) NoteOffReceived(key, velocity uint8) {
	l.capture(midi.NoteOffEvent(l.channel, key, velocity))
}

func (l *Loop) ControllerReceived(controller, value uint8) {
	l.capture(midi.ControllerEvent(l.channel, controller, value))
}

func (l *Loop) ProgramChangeReceived(program uint8) {
	l.capture(midi.ProgramChangeEvent(l.channel, program))
}

func (l *Loop) SysexReceived(data []byte) {
	l.capture(midi.SysexEvent(l.channel, data))
}
