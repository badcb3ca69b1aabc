package looper

import (
	"sync"

	"midi-looper/debug"
	"midi-looper/midi"
)

// Controller owns the stack of active loops and the undo stack, and turns
// the performer's four actions into loop transitions. At most one active
// loop records at a time, and it is always the top of the stack.
type Controller struct {
	source  midi.Source
	sink    midi.Sink
	channel uint8
	clock   Clock

	mu     sync.Mutex // guards the stacks; UI and pad input call in from different goroutines
	active []*Loop
	undo   []*Loop

	subsMu sync.Mutex
	subs   []chan struct{}
}

// NewController validates the collaborators every loop will share
func NewController(source midi.Source, sink midi.Sink, channel uint8) (*Controller, error) {
	if err := validate(source, sink, channel); err != nil {
		return nil, err
	}
	return &Controller{
		source:  source,
		sink:    sink,
		channel: channel,
		clock:   MonoClock,
	}, nil
}

// SetClock replaces the clock handed to new loops
func (c *Controller) SetClock(clock Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clock != nil {
		c.clock = clock
	}
}

// Record starts a new loop, or, if the top loop is recording, closes it
// out so it starts playing.
func (c *Controller) Record() {
	c.mu.Lock()
	top := c.top()
	if top != nil && top.IsRecording() {
		c.closeOut(top)
		debug.Log("ctrl", "record: loop=%d now playing", top.ID())
	} else {
		c.push()
	}
	c.mu.Unlock()
	c.notify()
}

// Overdub closes out the top loop (recording or not) and starts a new one
// on top. A top loop that was already playing restarts from its beginning.
func (c *Controller) Overdub() {
	c.mu.Lock()
	if top := c.top(); top != nil {
		c.closeOut(top)
	}
	c.push()
	c.mu.Unlock()
	c.notify()
}

// Undo moves a playing top loop to the undo stack, silencing it.
// A recording (or stopped) top is left alone.
func (c *Controller) Undo() {
	c.mu.Lock()
	top := c.top()
	if top == nil || !top.IsPlaying() {
		c.mu.Unlock()
		return
	}
	c.active = c.active[:len(c.active)-1]
	top.StopPlaying()
	c.undo = append(c.undo, top)
	debug.Log("ctrl", "undo: loop=%d active=%d undo=%d", top.ID(), len(c.active), len(c.undo))
	c.mu.Unlock()
	c.notify()
}

// Redo restarts the most recently undone loop and puts it back on top,
// unless the top loop is recording.
func (c *Controller) Redo() {
	c.mu.Lock()
	if len(c.undo) == 0 {
		c.mu.Unlock()
		return
	}
	if top := c.top(); top != nil && top.IsRecording() {
		c.mu.Unlock()
		return
	}
	l := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	if err := l.StartPlaying(); err != nil {
		debug.Log("ctrl", "redo: loop=%d start: %v", l.ID(), err)
	}
	c.active = append(c.active, l)
	debug.Log("ctrl", "redo: loop=%d active=%d undo=%d", l.ID(), len(c.active), len(c.undo))
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) LoopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

func (c *Controller) UndoCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undo)
}

// Top returns the most recently acted-upon loop, or nil
func (c *Controller) Top() *Loop {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.top()
}

// Status is a point-in-time view of both stacks
type Status struct {
	Loops []Info // bottom of the stack first
	Undo  []Info // next redo last
}

// Top returns the top loop's info
func (s Status) Top() (Info, bool) {
	if len(s.Loops) == 0 {
		return Info{}, false
	}
	return s.Loops[len(s.Loops)-1], true
}

// CanUndo mirrors Controller.Undo's precondition
func (s Status) CanUndo() bool {
	top, ok := s.Top()
	return ok && top.State == Playing
}

// CanRedo mirrors Controller.Redo's precondition
func (s Status) CanRedo() bool {
	if len(s.Undo) == 0 {
		return false
	}
	top, ok := s.Top()
	return !ok || top.State != Recording
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	active := append([]*Loop(nil), c.active...)
	undo := append([]*Loop(nil), c.undo...)
	c.mu.Unlock()

	st := Status{
		Loops: make([]Info, len(active)),
		Undo:  make([]Info, len(undo)),
	}
	for i, l := range active {
		st.Loops[i] = l.Info()
	}
	for i, l := range undo {
		st.Undo[i] = l.Info()
	}
	return st
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees one pending signal, not a backlog.
func (c *Controller) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.subsMu.Lock()
	c.subs = append(c.subs, ch)
	c.subsMu.Unlock()
	return ch
}

// Close stops recording and playback of every active loop. The stacks are
// kept so counts still read correctly after shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	for _, l := range c.active {
		l.StopRecording()
		l.StopPlaying()
	}
	c.mu.Unlock()
	debug.Log("ctrl", "closed")
	c.notify()
}

func (c *Controller) top() *Loop {
	if len(c.active) == 0 {
		return nil
	}
	return c.active[len(c.active)-1]
}

// push starts a new recording loop on top. Must hold mu.
func (c *Controller) push() {
	l, err := NewLoop(c.source, c.sink, c.channel, c.clock)
	if err != nil {
		// collaborators were validated in NewController
		debug.Error("ctrl", err, "new loop")
		return
	}
	c.active = append(c.active, l)
	debug.Log("ctrl", "record: loop=%d pushed active=%d", l.ID(), len(c.active))
}

// closeOut stops whatever l is doing and (re)starts its playback. Must hold mu.
func (c *Controller) closeOut(l *Loop) {
	l.StopRecording()
	l.StopPlaying()
	if err := l.StartPlaying(); err != nil {
		debug.Log("ctrl", "loop=%d start: %v", l.ID(), err)
	}
}

func (c *Controller) notify() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
