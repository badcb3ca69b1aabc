package midi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventDescribe(t *testing.T) {
	assert.Equal(t, "Wait 250", WaitMillis(250).Describe())
	assert.Equal(t, "NoteOn 60 100", NoteOnEvent(0, 60, 100).Describe())
	assert.Equal(t, "NoteOff 60 0", NoteOffEvent(3, 60, 0).Describe())
	assert.Equal(t, "Controller 7 64", ControllerEvent(0, 7, 64).Describe())
	assert.Equal(t, "ProgramChange 5", ProgramChangeEvent(0, 5).Describe())
	assert.Equal(t, "Sysex 7e7f0901", SysexEvent(0, []byte{0x7e, 0x7f, 0x09, 0x01}).Describe())
	assert.Equal(t, "NoteOn 1 2", NoteOnEvent(0, 1, 2).String())
}

func TestWaitNeverNegative(t *testing.T) {
	assert.Equal(t, time.Duration(0), Wait(-5*time.Millisecond).Duration)
	assert.Equal(t, int64(0), WaitMillis(-1).Millis())
	assert.True(t, Wait(0).IsWait())
}

func TestSysexIsCopied(t *testing.T) {
	raw := []byte{1, 2, 3}
	ev := SysexEvent(0, raw)
	raw[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, ev.Data())

	out := ev.Data()
	out[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, ev.Data())

	assert.Nil(t, NoteOnEvent(0, 1, 1).Data())
}

func TestOnChannel(t *testing.T) {
	ev := NoteOnEvent(0, 60, 100)
	moved := ev.OnChannel(9)
	assert.Equal(t, uint8(9), moved.Channel)
	assert.Equal(t, uint8(0), ev.Channel)

	w := WaitMillis(10).OnChannel(9)
	assert.Equal(t, uint8(0), w.Channel)
}

func TestEmitActions(t *testing.T) {
	sink := &recordingSink{}
	ctx := context.Background()

	NoteOnEvent(1, 60, 100).Emit(ctx, sink)
	NoteOffEvent(1, 60, 64).Emit(ctx, sink)
	ControllerEvent(2, 7, 127).Emit(ctx, sink)
	ProgramChangeEvent(3, 12).Emit(ctx, sink)
	SysexEvent(0, []byte{0x41}).Emit(ctx, sink)

	assert.Equal(t, []string{
		"on 1 60 100",
		"off 1 60 64",
		"cc 2 7 127",
		"pc 3 12",
		"sysex 41",
	}, sink.calls())
}

func TestEmitWaitSleeps(t *testing.T) {
	sink := &recordingSink{}
	start := time.Now()
	WaitMillis(30).Emit(context.Background(), sink)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Empty(t, sink.calls())
}

func TestEmitWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	WaitMillis(5000).Emit(ctx, &recordingSink{})
	assert.Less(t, time.Since(start), time.Second)
}
