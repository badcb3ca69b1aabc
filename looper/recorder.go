package looper

import (
	"time"

	"midi-looper/midi"
)

// Recorder turns timestamped incoming messages into timeline entries,
// inserting a Wait for every gap of at least one millisecond.
type Recorder struct {
	timeline *Timeline
	channel  uint8
	lastMs   int64
}

// NewRecorder starts the gap clock at now
func NewRecorder(timeline *Timeline, channel uint8, now time.Duration) *Recorder {
	return &Recorder{
		timeline: timeline,
		channel:  channel,
		lastMs:   now.Milliseconds(),
	}
}

// Capture appends ev (moved to the recorder's output channel), preceded by
// the wait since the previous capture. Gaps are measured between absolute
// millisecond readings so sub-millisecond remainders don't drift.
func (r *Recorder) Capture(ev midi.Event, now time.Duration) {
	if ev.IsWait() {
		return
	}
	nowMs := now.Milliseconds()
	if gap := nowMs - r.lastMs; gap > 0 {
		r.timeline.Append(midi.WaitMillis(gap), ev.OnChannel(r.channel))
	} else {
		r.timeline.Append(ev.OnChannel(r.channel))
	}
	r.lastMs = nowMs
}
