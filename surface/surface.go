// Package surface drives a grid controller as the looper's foot switch:
// four pads for the performer actions and two rows of loop/undo lights.
package surface

import (
	"context"
	"sync"
	"time"

	"midi-looper/debug"
	"midi-looper/looper"
	"midi-looper/midi"
	"midi-looper/theme"
)

// LED refresh rate
const ledFPS = 30

// Action pads on the bottom row
const (
	ColRecord = iota
	ColOverdub
	ColUndo
	ColRedo
)

// Status rows
const (
	rowActions = 0
	rowLoops   = 1
	rowUndo    = 2
)

// Looper is the part of looper.Controller the surface drives
type Looper interface {
	Record()
	Overdub()
	Undo()
	Redo()
	Status() looper.Status
	Subscribe() <-chan struct{}
}

type Surface struct {
	looper Looper
	theme  *theme.Theme

	mu       sync.Mutex
	device   midi.Controller
	prevLEDs map[[2]int]midi.LEDUpdate
	dirty    bool
}

func New(l Looper, th *theme.Theme) *Surface {
	if th == nil {
		th = theme.New(nil)
	}
	return &Surface{
		looper:   l,
		theme:    th,
		prevLEDs: make(map[[2]int]midi.LEDUpdate),
		dirty:    true,
	}
}

// SetDevice attaches a controller (nil detaches). Pad presses are read on
// a goroutine until the device closes its PadEvents channel.
func (s *Surface) SetDevice(dev midi.Controller) {
	s.mu.Lock()
	s.device = dev
	s.prevLEDs = make(map[[2]int]midi.LEDUpdate) // diff will redraw everything
	s.dirty = true
	s.mu.Unlock()

	if dev == nil {
		debug.Log("surface", "device detached")
		return
	}
	debug.Log("surface", "device attached %s", dev.ID())
	if err := dev.ClearLEDs(); err != nil {
		debug.Error("surface", err, "clear %s", dev.ID())
	}
	go func() {
		for ev := range dev.PadEvents() {
			s.HandlePad(ev)
		}
	}()
}

// Device returns the attached controller, if any
func (s *Surface) Device() midi.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// HandlePad maps a press to a looper action. It reports whether the pad
// has an action.
func (s *Surface) HandlePad(ev midi.PadEvent) bool {
	if ev.Row != rowActions {
		return false
	}
	switch ev.Col {
	case ColRecord:
		s.looper.Record()
	case ColOverdub:
		s.looper.Overdub()
	case ColUndo:
		s.looper.Undo()
	case ColRedo:
		s.looper.Redo()
	default:
		return false
	}
	debug.Log("surface", "pad %d,%d", ev.Row, ev.Col)
	s.markDirty()
	return true
}

func (s *Surface) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Run flushes LED changes at a fixed rate until ctx is done
func (s *Surface) Run(ctx context.Context) {
	updates := s.looper.Subscribe()
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			s.markDirty()
		case <-ticker.C:
			s.mu.Lock()
			dirty := s.dirty
			s.dirty = false
			s.mu.Unlock()

			if dirty {
				s.flush()
			}
		}
	}
}

// flush sends only changed LEDs to the device
func (s *Surface) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return
	}

	leds := Render(s.looper.Status(), s.theme)
	next := make(map[[2]int]midi.LEDUpdate, len(leds))

	var updates []midi.LEDUpdate
	for _, led := range leds {
		key := [2]int{led.Row, led.Col}
		next[key] = led
		if prev, ok := s.prevLEDs[key]; !ok || prev != led {
			updates = append(updates, led)
		}
	}
	for key := range s.prevLEDs {
		if _, ok := next[key]; !ok {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1]})
		}
	}

	if len(updates) > 0 {
		debug.Log("led", "flush: batch=%d prev=%d", len(updates), len(s.prevLEDs))
		if err := s.device.SetLEDBatch(updates); err != nil {
			debug.Error("led", err, "batch")
		}
	}
	s.prevLEDs = next
}

// Render lays out the lights for st. Unlisted pads are dark.
//
//	row 2: one pad per undone loop, oldest first
//	row 1: one pad per active loop, bottom of the stack first
//	row 0: record, overdub, undo, redo
func Render(st looper.Status, th *theme.Theme) []midi.LEDUpdate {
	var leds []midi.LEDUpdate
	add := func(row, col int, c theme.RGB, channel uint8) {
		leds = append(leds, midi.LEDUpdate{Row: row, Col: col, Color: c, Channel: channel})
	}

	top, hasTop := st.Top()
	recording := hasTop && top.State == looper.Recording

	if recording {
		add(rowActions, ColRecord, th.Loop.Recording, midi.ChannelPulse)
	} else {
		add(rowActions, ColRecord, th.Loop.Action, midi.ChannelStatic)
	}
	add(rowActions, ColOverdub, th.Loop.Action, midi.ChannelStatic)
	if st.CanUndo() {
		add(rowActions, ColUndo, th.Loop.Action, midi.ChannelStatic)
	}
	if st.CanRedo() {
		add(rowActions, ColRedo, th.Loop.Action, midi.ChannelStatic)
	}

	// only the newest eight fit on a row
	loops := st.Loops
	if len(loops) > 8 {
		loops = loops[len(loops)-8:]
	}
	for col, info := range loops {
		switch info.State {
		case looper.Recording:
			add(rowLoops, col, th.Loop.Recording, midi.ChannelPulse)
		case looper.Playing:
			add(rowLoops, col, th.Loop.Playing, midi.ChannelStatic)
		default:
			add(rowLoops, col, th.Loop.Stopped, midi.ChannelStatic)
		}
	}

	undo := st.Undo
	if len(undo) > 8 {
		undo = undo[len(undo)-8:]
	}
	for col := range undo {
		add(rowUndo, col, th.Loop.Undone, midi.ChannelStatic)
	}
	return leds
}
