package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"midi-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ledSendCount atomic.Uint64

// Launchpad X SysEx bodies (F0/F7 added by gomidi.SysEx)
var (
	lpProgrammerMode = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}
	lpLiveMode       = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x00}
	lpMaxBrightness  = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}
	lpLEDFeedback    = []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}
)

// lpPalette approximates Launchpad X velocity colors as {velocity, R, G, B}
var lpPalette = [][4]uint8{
	{0, 0, 0, 0},
	{3, 180, 180, 180},
	{5, 255, 0, 0},
	{7, 120, 30, 30},
	{9, 255, 100, 0},
	{11, 140, 60, 20},
	{13, 255, 200, 0},
	{19, 0, 100, 0},
	{21, 0, 255, 0},
	{37, 0, 200, 200},
	{43, 30, 40, 110},
	{45, 0, 100, 255},
	{49, 150, 0, 200},
	{53, 255, 80, 180},
	{97, 120, 120, 40},
	{119, 255, 255, 255},
}

// LaunchpadController drives a Novation Launchpad X in programmer mode
type LaunchpadController struct {
	id       string
	inPort   drivers.In
	outPort  drivers.Out
	stopFunc func()

	sendMu sync.Mutex
	send   func(msg gomidi.Message) error

	padMu   sync.RWMutex // guards padChan against close while a callback sends
	padChan chan PadEvent
	closed  atomic.Bool
}

// NewLaunchpadController opens both ports and switches the device to programmer mode
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		padChan: make(chan PadEvent, 32),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send
		for _, body := range [][]byte{lpProgrammerMode, lpMaxBrightness, lpLEDFeedback} {
			if err := lp.write(gomidi.SysEx(body)); err != nil {
				return nil, fmt.Errorf("launchpad setup: %w", err)
			}
		}
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, lp.handle)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

// handle turns pad presses (notes) and top-row buttons (CC 91-98) into PadEvents.
// Releases are ignored.
func (lp *LaunchpadController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity, cc, value uint8
	row, col := -1, -1

	switch {
	case msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0:
		row, col = noteToRowCol(note)
	case msg.GetControlChange(&channel, &cc, &value) && value > 0:
		row, col = ccToRowCol(cc)
		velocity = value
	}
	if row < 0 {
		return
	}

	lp.padMu.RLock()
	defer lp.padMu.RUnlock()
	if lp.closed.Load() {
		return
	}
	select {
	case lp.padChan <- PadEvent{Row: row, Col: col, Velocity: velocity}:
	default:
		debug.Log("lp", "%s pad event dropped row=%d col=%d", lp.id, row, col)
	}
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

func (lp *LaunchpadController) write(msg gomidi.Message) error {
	if lp.send == nil {
		return nil
	}
	lp.sendMu.Lock()
	defer lp.sendMu.Unlock()
	return lp.send(msg)
}

func (lp *LaunchpadController) SetLEDRGB(row, col int, rgb [3]uint8, channel uint8) error {
	ledSendCount.Add(1)
	return lp.write(gomidi.NoteOn(channel, rowColToNote(row, col), nearestPaletteColor(rgb)))
}

// SetLEDBatch sends one NoteOn per update; callers are expected to have diffed
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	var firstErr error
	for _, u := range updates {
		err := lp.write(gomidi.NoteOn(u.Channel, rowColToNote(u.Row, u.Col), nearestPaletteColor(u.Color)))
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	count := ledSendCount.Add(uint64(len(updates)))
	if count%100 < uint64(len(updates)) {
		debug.Log("lp-send", "batch count=%d (this batch=%d)", count, len(updates))
	}
	return firstErr
}

// ClearLEDs turns off every pad
func (lp *LaunchpadController) ClearLEDs() error {
	var updates []LEDUpdate
	for row := 0; row < GridRows; row++ {
		for col := 0; col < GridCols; col++ {
			if row == 8 && col == 8 {
				continue // no LED at 8,8
			}
			updates = append(updates, LEDUpdate{Row: row, Col: col})
		}
	}
	return lp.SetLEDBatch(updates)
}

// Close darkens the device, hands it back to live mode and stops listening
func (lp *LaunchpadController) Close() error {
	lp.padMu.Lock()
	if !lp.closed.CompareAndSwap(false, true) {
		lp.padMu.Unlock()
		return nil
	}
	close(lp.padChan)
	lp.padMu.Unlock()

	if lp.send != nil {
		lp.ClearLEDs()
		lp.write(gomidi.SysEx(lpLiveMode))
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	return nil
}

// nearestPaletteColor picks the palette velocity closest to rgb
func nearestPaletteColor(rgb [3]uint8) uint8 {
	best := uint8(0)
	bestDist := -1

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range lpPalette {
		dr, dg, db := r-int(p[1]), g-int(p[2]), b-int(p[3])
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = p[0]
		}
	}
	return best
}

// Launchpad X programmer-mode layout:
//   8x8 grid: row 0 (bottom) = notes 11-18 ... row 7 = notes 81-88
//   side column (col 8) = notes 19, 29, ... 89
//   top row (row 8) = CC 91-98, lit with notes 91-98

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
