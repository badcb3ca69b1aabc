package looper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"midi-looper/midi"
)

func TestRecorderNoteOnWaitNoteOff(t *testing.T) {
	tl := NewTimeline()
	r := NewRecorder(tl, 0, 0)

	r.Capture(midi.NoteOnEvent(0, 60, 100), 0)
	r.Capture(midi.NoteOffEvent(0, 60, 100), 250*time.Millisecond)

	assert.Equal(t, []string{"NoteOn 60 100", "Wait 250", "NoteOff 60 100"}, tl.Describe())
}

func TestRecorderWaitsOnlyForGaps(t *testing.T) {
	gaps := []int64{0, 10, 0, 0, 3, 1000, 0}

	tl := NewTimeline()
	r := NewRecorder(tl, 0, 0)
	var now int64
	var want []string
	for i, gap := range gaps {
		now += gap
		if gap > 0 {
			want = append(want, midi.WaitMillis(gap).Describe())
		}
		ev := midi.ControllerEvent(0, uint8(i), 1)
		want = append(want, ev.Describe())
		r.Capture(ev, time.Duration(now)*time.Millisecond)
	}

	assert.Equal(t, want, tl.Describe())
	assert.Equal(t, len(gaps), tl.Actions())
	assert.Equal(t, 1013*time.Millisecond, tl.Duration())
}

func TestRecorderTagsOutputChannel(t *testing.T) {
	tl := NewTimeline()
	r := NewRecorder(tl, 9, 0)
	r.Capture(midi.NoteOnEvent(2, 60, 100), 0)
	r.Capture(midi.ProgramChangeEvent(0, 4), 0)

	events := tl.Events()
	assert.Equal(t, uint8(9), events[0].Channel)
	assert.Equal(t, uint8(9), events[1].Channel)
}

func TestRecorderLeadingWaitFromCreation(t *testing.T) {
	tl := NewTimeline()
	r := NewRecorder(tl, 0, 1000*time.Millisecond)
	r.Capture(midi.NoteOnEvent(0, 60, 100), 1400*time.Millisecond)

	assert.Equal(t, []string{"Wait 400", "NoteOn 60 100"}, tl.Describe())
}

func TestRecorderSubMillisecondGapsDontDrift(t *testing.T) {
	tl := NewTimeline()
	r := NewRecorder(tl, 0, 0)

	// ten events 0.6ms apart span 6ms in total
	for i := 1; i <= 10; i++ {
		r.Capture(midi.NoteOnEvent(0, 60, 1), time.Duration(i)*600*time.Microsecond)
	}
	assert.Equal(t, 6*time.Millisecond, tl.Duration())
	assert.Equal(t, 10, tl.Actions())
}

func TestRecorderIgnoresWaits(t *testing.T) {
	tl := NewTimeline()
	r := NewRecorder(tl, 0, 0)
	r.Capture(midi.WaitMillis(10), 5*time.Millisecond)
	assert.Zero(t, tl.Len())
}
