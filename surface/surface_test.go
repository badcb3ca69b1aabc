package surface

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midi-looper/looper"
	"midi-looper/midi"
	"midi-looper/theme"
)

type fakeLooper struct {
	mu      sync.Mutex
	actions []string
	status  looper.Status
	updates chan struct{}
}

func newFakeLooper() *fakeLooper {
	return &fakeLooper{updates: make(chan struct{}, 1)}
}

func (f *fakeLooper) do(name string) {
	f.mu.Lock()
	f.actions = append(f.actions, name)
	f.mu.Unlock()
}

func (f *fakeLooper) Record()  { f.do("record") }
func (f *fakeLooper) Overdub() { f.do("overdub") }
func (f *fakeLooper) Undo()    { f.do("undo") }
func (f *fakeLooper) Redo()    { f.do("redo") }

func (f *fakeLooper) Status() looper.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeLooper) setStatus(st looper.Status) {
	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

func (f *fakeLooper) Subscribe() <-chan struct{} { return f.updates }

func (f *fakeLooper) done() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

type fakeDevice struct {
	pads chan midi.PadEvent

	mu      sync.Mutex
	batches [][]midi.LEDUpdate
	cleared int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{pads: make(chan midi.PadEvent, 8)}
}

func (d *fakeDevice) ID() string                      { return "fake" }
func (d *fakeDevice) Type() midi.ControllerType       { return midi.ControllerLaunchpad }
func (d *fakeDevice) PadEvents() <-chan midi.PadEvent { return d.pads }
func (d *fakeDevice) SetLEDRGB(row, col int, rgb [3]uint8, channel uint8) error {
	return d.SetLEDBatch([]midi.LEDUpdate{{Row: row, Col: col, Color: rgb, Channel: channel}})
}

func (d *fakeDevice) SetLEDBatch(updates []midi.LEDUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, append([]midi.LEDUpdate(nil), updates...))
	return nil
}

func (d *fakeDevice) ClearLEDs() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared++
	return nil
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) batchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

func (d *fakeDevice) lastBatch() []midi.LEDUpdate {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.batches) == 0 {
		return nil
	}
	return d.batches[len(d.batches)-1]
}

func at(leds []midi.LEDUpdate, row, col int) (midi.LEDUpdate, bool) {
	for _, led := range leds {
		if led.Row == row && led.Col == col {
			return led, true
		}
	}
	return midi.LEDUpdate{}, false
}

func TestHandlePad(t *testing.T) {
	l := newFakeLooper()
	s := New(l, nil)

	assert.True(t, s.HandlePad(midi.PadEvent{Row: 0, Col: ColRecord}))
	assert.True(t, s.HandlePad(midi.PadEvent{Row: 0, Col: ColOverdub}))
	assert.True(t, s.HandlePad(midi.PadEvent{Row: 0, Col: ColUndo}))
	assert.True(t, s.HandlePad(midi.PadEvent{Row: 0, Col: ColRedo}))
	assert.False(t, s.HandlePad(midi.PadEvent{Row: 0, Col: 7}))
	assert.False(t, s.HandlePad(midi.PadEvent{Row: 3, Col: 0}))

	assert.Equal(t, []string{"record", "overdub", "undo", "redo"}, l.done())
}

func TestRenderEmpty(t *testing.T) {
	th := theme.New(nil)
	leds := Render(looper.Status{}, th)

	rec, ok := at(leds, 0, ColRecord)
	require.True(t, ok)
	assert.Equal(t, [3]uint8(th.Loop.Action), rec.Color)
	_, ok = at(leds, 0, ColUndo)
	assert.False(t, ok)
	_, ok = at(leds, 0, ColRedo)
	assert.False(t, ok)
	assert.Len(t, leds, 2)
}

func TestRenderLoops(t *testing.T) {
	th := theme.New(nil)
	st := looper.Status{
		Loops: []looper.Info{{ID: 1, State: looper.Playing}, {ID: 2, State: looper.Recording}},
		Undo:  []looper.Info{{ID: 3, State: looper.Stopped}},
	}
	leds := Render(st, th)

	rec, _ := at(leds, 0, ColRecord)
	assert.Equal(t, [3]uint8(th.Loop.Recording), rec.Color)
	assert.Equal(t, midi.ChannelPulse, rec.Channel)

	_, ok := at(leds, 0, ColUndo)
	assert.False(t, ok, "recording top is not undoable")
	_, ok = at(leds, 0, ColRedo)
	assert.False(t, ok, "no redo into a recording")

	first, _ := at(leds, 1, 0)
	assert.Equal(t, [3]uint8(th.Loop.Playing), first.Color)
	second, _ := at(leds, 1, 1)
	assert.Equal(t, [3]uint8(th.Loop.Recording), second.Color)
	undone, ok := at(leds, 2, 0)
	require.True(t, ok)
	assert.Equal(t, [3]uint8(th.Loop.Undone), undone.Color)
}

func TestRenderKeepsNewestEight(t *testing.T) {
	var st looper.Status
	for i := 0; i < 10; i++ {
		st.Loops = append(st.Loops, looper.Info{ID: i, State: looper.Playing})
	}
	st.Loops[9].State = looper.Stopped

	th := theme.New(nil)
	leds := Render(st, th)
	last, ok := at(leds, 1, 7)
	require.True(t, ok)
	assert.Equal(t, [3]uint8(th.Loop.Stopped), last.Color)
	_, ok = at(leds, 1, 8)
	assert.False(t, ok)
}

func TestRunFlushesDiffs(t *testing.T) {
	l := newFakeLooper()
	s := New(l, nil)
	dev := newFakeDevice()
	s.SetDevice(dev)
	assert.Same(t, dev, s.Device())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool { return dev.batchCount() == 1 }, time.Second, time.Millisecond)
	assert.Len(t, dev.lastBatch(), 2)

	l.setStatus(looper.Status{Loops: []looper.Info{{ID: 1, State: looper.Playing}}})
	require.Eventually(t, func() bool { return dev.batchCount() == 2 }, time.Second, time.Millisecond)

	// the record pad is unchanged; undo and the loop light are new
	batch := dev.lastBatch()
	assert.Len(t, batch, 2)
	_, ok := at(batch, 0, ColUndo)
	assert.True(t, ok)
	_, ok = at(batch, 1, 0)
	assert.True(t, ok)

	l.setStatus(looper.Status{})
	require.Eventually(t, func() bool { return dev.batchCount() == 3 }, time.Second, time.Millisecond)
	for _, led := range dev.lastBatch() {
		assert.Equal(t, [3]uint8{}, led.Color, "%d,%d should go dark", led.Row, led.Col)
	}
}

func TestPadsFromDevice(t *testing.T) {
	l := newFakeLooper()
	s := New(l, nil)
	dev := newFakeDevice()
	s.SetDevice(dev)

	dev.pads <- midi.PadEvent{Row: 0, Col: ColRecord, Velocity: 100}
	close(dev.pads)

	require.Eventually(t, func() bool { return len(l.done()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, dev.cleared)

	s.SetDevice(nil)
	assert.Nil(t, s.Device())
}
