package looper

import (
	"context"
	"sync"
	"sync/atomic"

	"midi-looper/debug"
	"midi-looper/midi"
)

// Player replays a timeline on its own goroutine, starting over from the
// first event as soon as the last one is done, until stopped.
type Player struct {
	id       int
	timeline *Timeline
	sink     midi.Sink

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	passes atomic.Int64
}

func NewPlayer(id int, timeline *Timeline, sink midi.Sink) *Player {
	return &Player{
		id:       id,
		timeline: timeline,
		sink:     sink,
	}
}

// Play starts the playback goroutine. It returns ErrAlreadyPlaying if one
// is running.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyPlaying
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	debug.Log("player", "loop=%d play events=%d length=%s", p.id, p.timeline.Len(), p.timeline.Duration())
	go p.run(ctx, done)
	return nil
}

// Stop asks the playback goroutine to exit and returns without waiting.
// No new event starts after the request; a wait in progress is cut short.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		return
	}
	p.cancel()
	p.cancel = nil
	debug.Log("player", "loop=%d stop passes=%d", p.id, p.passes.Load())
}

// Playing reports whether a playback goroutine has been started and not stopped
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Done is closed when the most recently started goroutine has exited.
// It is nil if Play was never called.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Passes counts complete passes over the timeline since creation
func (p *Player) Passes() int64 {
	return p.passes.Load()
}

func (p *Player) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		events := p.timeline.snapshot()
		if len(events) == 0 {
			// nothing to play: stay silent until stopped
			<-ctx.Done()
			return
		}

		for _, ev := range events {
			if ctx.Err() != nil {
				return
			}
			ev.Emit(ctx, p.sink)
		}
		if ctx.Err() != nil {
			return
		}

		n := p.passes.Add(1)
		debug.LogEvery(16, "player", "loop=%d pass=%d", p.id, n)
	}
}
