package looper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"midi-looper/midi"
)

func waitDone(t *testing.T, p *Player) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("player did not stop")
	}
}

func TestPlayerRepeatsIdenticalPasses(t *testing.T) {
	tl := NewTimeline(
		midi.NoteOnEvent(0, 60, 100),
		midi.Wait(2*time.Millisecond),
		midi.NoteOffEvent(0, 60, 100),
		midi.ControllerEvent(0, 7, 64),
		midi.Wait(2*time.Millisecond),
	)
	sink := &fakeSink{}
	p := NewPlayer(1, tl, sink)

	require.NoError(t, p.Play())
	require.Eventually(t, func() bool { return p.Passes() >= 3 }, 2*time.Second, time.Millisecond)
	p.Stop()
	waitDone(t, p)

	calls := sink.calls()
	require.GreaterOrEqual(t, len(calls), 9)
	pass := []string{"on 0 60 100", "off 0 60 100", "cc 0 7 64"}
	for i := 0; i < 3; i++ {
		assert.Equal(t, pass, calls[i*3:i*3+3], "pass %d", i)
	}
}

func TestPlayerPlayTwice(t *testing.T) {
	p := NewPlayer(1, NewTimeline(midi.WaitMillis(5)), &fakeSink{})
	require.NoError(t, p.Play())
	assert.ErrorIs(t, p.Play(), ErrAlreadyPlaying)
	assert.True(t, p.Playing())

	p.Stop()
	assert.False(t, p.Playing())
	waitDone(t, p)
}

func TestPlayerStopInterruptsWait(t *testing.T) {
	p := NewPlayer(1, NewTimeline(midi.Wait(time.Hour)), &fakeSink{})
	require.NoError(t, p.Play())

	start := time.Now()
	p.Stop()
	waitDone(t, p)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, p.Passes())
}

func TestPlayerRestartsFromFirstEvent(t *testing.T) {
	tl := NewTimeline(
		midi.NoteOnEvent(0, 1, 1),
		midi.Wait(20*time.Millisecond),
		midi.NoteOnEvent(0, 2, 1),
		midi.Wait(20*time.Millisecond),
	)
	sink := &fakeSink{}
	p := NewPlayer(1, tl, sink)

	require.NoError(t, p.Play())
	require.Eventually(t, func() bool { return sink.count() >= 2 }, time.Second, time.Millisecond)
	p.Stop()
	waitDone(t, p)

	sink.reset()
	require.NoError(t, p.Play())
	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, time.Millisecond)
	p.Stop()
	waitDone(t, p)

	assert.Equal(t, "on 0 1 1", sink.calls()[0])
}

func TestPlayerEmptyTimelineIsSilent(t *testing.T) {
	sink := &fakeSink{}
	p := NewPlayer(1, NewTimeline(), sink)
	require.NoError(t, p.Play())

	time.Sleep(10 * time.Millisecond)
	p.Stop()
	waitDone(t, p)

	assert.Zero(t, sink.count())
	assert.Zero(t, p.Passes())
}

func TestPlayerStopWithoutPlay(t *testing.T) {
	p := NewPlayer(1, NewTimeline(), &fakeSink{})
	p.Stop()
	assert.False(t, p.Playing())
	assert.Nil(t, p.Done())
}
