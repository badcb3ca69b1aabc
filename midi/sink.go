package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"midi-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink accepts outgoing MIDI actions. Implementations must be safe for
// concurrent use: every playing loop sends from its own goroutine.
// Sends are fire-and-forget.
type Sink interface {
	NoteOn(channel, key, velocity uint8)
	NoteOff(channel, key, velocity uint8)
	ControlChange(channel, controller, value uint8)
	ProgramChange(channel, program uint8)
	SysEx(data []byte)
}

// PortSink writes to a MIDI output port
type PortSink struct {
	name   string
	mu     sync.Mutex // the driver's send func isn't safe for concurrent callers
	send   func(msg gomidi.Message) error
	failed atomic.Uint64
}

// NewPortSink opens outPort for writing
func NewPortSink(outPort drivers.Out) (*PortSink, error) {
	if outPort == nil {
		return nil, ErrPortNotFound
	}
	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &PortSink{name: outPort.String(), send: send}, nil
}

// NewFuncSink wraps an arbitrary send function (virtual ports, tests)
func NewFuncSink(name string, send func(msg gomidi.Message) error) *PortSink {
	return &PortSink{name: name, send: send}
}

func (s *PortSink) Name() string {
	return s.name
}

// Failed returns how many sends the port rejected
func (s *PortSink) Failed() uint64 {
	return s.failed.Load()
}

func (s *PortSink) NoteOn(channel, key, velocity uint8) {
	s.write(gomidi.NoteOn(channel, key, velocity))
}

func (s *PortSink) NoteOff(channel, key, velocity uint8) {
	s.write(gomidi.NoteOffVelocity(channel, key, velocity))
}

func (s *PortSink) ControlChange(channel, controller, value uint8) {
	s.write(gomidi.ControlChange(channel, controller, value))
}

func (s *PortSink) ProgramChange(channel, program uint8) {
	s.write(gomidi.ProgramChange(channel, program))
}

func (s *PortSink) SysEx(data []byte) {
	s.write(gomidi.SysEx(data))
}

func (s *PortSink) write(msg gomidi.Message) {
	s.mu.Lock()
	err := s.send(msg)
	s.mu.Unlock()

	if err != nil {
		// a failed send must not stall playback; count it and move on
		s.failed.Add(1)
		debug.LogEvery(50, "sink", "port=%s send failed: %v", s.name, err)
	}
}
