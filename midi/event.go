package midi

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
)

// Kind tags the variant an Event holds
type Kind uint8

const (
	KindWait Kind = iota
	KindNoteOn
	KindNoteOff
	KindController
	KindProgramChange
	KindSysex
)

func (k Kind) String() string {
	switch k {
	case KindWait:
		return "Wait"
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	case KindController:
		return "Controller"
	case KindProgramChange:
		return "ProgramChange"
	case KindSysex:
		return "Sysex"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is one entry of a loop's timeline: either a timed wait or a MIDI
// action bound for an output channel. Events are values; the only reference
// they hold is the sysex payload, which is copied on construction and never
// handed out for writing.
type Event struct {
	Kind     Kind
	Channel  uint8         // output channel 0-15 (actions only)
	Number   uint8         // pitch, controller number or program
	Value    uint8         // velocity or controller value
	Duration time.Duration // waits only
	data     []byte
}

// Wait builds a wait event. Negative durations are clamped to zero.
func Wait(d time.Duration) Event {
	if d < 0 {
		d = 0
	}
	return Event{Kind: KindWait, Duration: d}
}

// WaitMillis builds a wait event from a millisecond count
func WaitMillis(ms int64) Event {
	return Wait(time.Duration(ms) * time.Millisecond)
}

func NoteOnEvent(channel, key, velocity uint8) Event {
	return Event{Kind: KindNoteOn, Channel: channel, Number: key, Value: velocity}
}

func NoteOffEvent(channel, key, velocity uint8) Event {
	return Event{Kind: KindNoteOff, Channel: channel, Number: key, Value: velocity}
}

func ControllerEvent(channel, controller, value uint8) Event {
	return Event{Kind: KindController, Channel: channel, Number: controller, Value: value}
}

func ProgramChangeEvent(channel, program uint8) Event {
	return Event{Kind: KindProgramChange, Channel: channel, Number: program}
}

// SysexEvent copies data so later writes by the caller don't leak into the timeline
func SysexEvent(channel uint8, data []byte) Event {
	cp := make([]byte, len(data))
	copy(cp, data)
	return Event{Kind: KindSysex, Channel: channel, data: cp}
}

// OnChannel returns a copy of e addressed to channel. Waits are returned as is.
func (e Event) OnChannel(channel uint8) Event {
	if e.Kind == KindWait {
		return e
	}
	e.Channel = channel
	return e
}

// IsWait reports whether e is a wait rather than an action
func (e Event) IsWait() bool {
	return e.Kind == KindWait
}

// Millis returns the wait duration in whole milliseconds
func (e Event) Millis() int64 {
	return e.Duration.Milliseconds()
}

// Data returns a copy of the sysex payload (nil for other kinds)
func (e Event) Data() []byte {
	if e.data == nil {
		return nil
	}
	cp := make([]byte, len(e.data))
	copy(cp, e.data)
	return cp
}

// Describe returns a short human readable tag, e.g. "NoteOn 60 100"
func (e Event) Describe() string {
	switch e.Kind {
	case KindWait:
		return fmt.Sprintf("Wait %d", e.Millis())
	case KindNoteOn, KindNoteOff, KindController:
		return fmt.Sprintf("%s %d %d", e.Kind, e.Number, e.Value)
	case KindProgramChange:
		return fmt.Sprintf("%s %d", e.Kind, e.Number)
	case KindSysex:
		return fmt.Sprintf("%s %s", e.Kind, hex.EncodeToString(e.data))
	}
	return e.Kind.String()
}

func (e Event) String() string {
	return e.Describe()
}

// Emit performs the event: actions go straight to sink, waits block the
// calling goroutine for Duration or until ctx is done, whichever comes first.
func (e Event) Emit(ctx context.Context, sink Sink) {
	switch e.Kind {
	case KindWait:
		if e.Duration <= 0 {
			return
		}
		timer := time.NewTimer(e.Duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	case KindNoteOn:
		sink.NoteOn(e.Channel, e.Number, e.Value)
	case KindNoteOff:
		sink.NoteOff(e.Channel, e.Number, e.Value)
	case KindController:
		sink.ControlChange(e.Channel, e.Number, e.Value)
	case KindProgramChange:
		sink.ProgramChange(e.Channel, e.Number)
	case KindSysex:
		sink.SysEx(e.data)
	}
}
