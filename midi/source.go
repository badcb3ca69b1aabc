package midi

import (
	"context"
	"fmt"
	"sync"

	"midi-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Receiver is the callback target for incoming performance messages.
// The input channel is not passed on: a loop always replays on its own
// output channel.
type Receiver interface {
	NoteOnReceived(key, velocity uint8)
	NoteOffReceived(key, velocity uint8)
	ControllerReceived(controller, value uint8)
	ProgramChangeReceived(program uint8)
	SysexReceived(data []byte)
}

// Source delivers incoming messages to plugged receivers. Callbacks for one
// source are serialized.
type Source interface {
	Plug(r Receiver)
	Unplug(r Receiver)
}

// PortSource listens on a MIDI input port and fans messages out to receivers
type PortSource struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	mu        sync.RWMutex
	receivers []Receiver

	// optional live echo of everything received
	thru        Sink
	thruChannel uint8
}

// NewPortSource starts listening on inPort. A nil port yields a source that
// only receives what is passed to Dispatch.
func NewPortSource(id string, inPort drivers.In) (*PortSource, error) {
	s := &PortSource{
		id:     id,
		inPort: inPort,
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			s.Dispatch(msg)
		}, gomidi.UseSysEx())
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		s.stopFunc = stop
	}

	return s, nil
}

func (s *PortSource) ID() string {
	return s.id
}

// Plug subscribes r. Plugging the same receiver twice is a no-op.
func (s *PortSource) Plug(r Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.receivers {
		if existing == r {
			return
		}
	}
	s.receivers = append(s.receivers, r)
	debug.Log("source", "%s plug receivers=%d", s.id, len(s.receivers))
}

func (s *PortSource) Unplug(r Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.receivers {
		if existing == r {
			s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
			debug.Log("source", "%s unplug receivers=%d", s.id, len(s.receivers))
			return
		}
	}
}

// Receivers returns the number of plugged receivers
func (s *PortSource) Receivers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receivers)
}

// SetThru echoes every recognized message to sink on channel (nil disables)
func (s *PortSource) SetThru(sink Sink, channel uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thru = sink
	s.thruChannel = channel
}

// Dispatch decodes msg and hands it to every plugged receiver. Messages the
// looper doesn't record (clock, aftertouch, pitch bend...) are dropped.
func (s *PortSource) Dispatch(msg gomidi.Message) {
	ev, ok := Decode(msg)
	if !ok {
		return
	}

	s.mu.RLock()
	receivers := make([]Receiver, len(s.receivers))
	copy(receivers, s.receivers)
	thru, thruChannel := s.thru, s.thruChannel
	s.mu.RUnlock()

	if thru != nil {
		ev.OnChannel(thruChannel).Emit(context.Background(), thru)
	}

	for _, r := range receivers {
		Deliver(r, ev)
	}
}

// Close stops listening and drops all receivers
func (s *PortSource) Close() error {
	if s.stopFunc != nil {
		s.stopFunc()
		s.stopFunc = nil
	}
	s.mu.Lock()
	s.receivers = nil
	s.mu.Unlock()
	return nil
}

// Decode converts a wire message into an action event on its input channel.
// Sysex events carry channel 0.
func Decode(msg gomidi.Message) (Event, bool) {
	var channel, key, velocity, controller, value, program uint8
	var data []byte

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return NoteOnEvent(channel, key, velocity), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return NoteOffEvent(channel, key, velocity), true
	case msg.GetControlChange(&channel, &controller, &value):
		return ControllerEvent(channel, controller, value), true
	case msg.GetProgramChange(&channel, &program):
		return ProgramChangeEvent(channel, program), true
	case msg.GetSysEx(&data):
		return SysexEvent(0, data), true
	}
	return Event{}, false
}

// Deliver invokes the receiver callback matching ev's kind. Waits are ignored.
func Deliver(r Receiver, ev Event) {
	switch ev.Kind {
	case KindNoteOn:
		r.NoteOnReceived(ev.Number, ev.Value)
	case KindNoteOff:
		r.NoteOffReceived(ev.Number, ev.Value)
	case KindController:
		r.ControllerReceived(ev.Number, ev.Value)
	case KindProgramChange:
		r.ProgramChangeReceived(ev.Number)
	case KindSysex:
		r.SysexReceived(ev.data)
	}
}
