package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"midi-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	ErrPortNotFound    = errors.New("midi port not found")
	ErrPortScanTimeout = errors.New("midi port scan timed out")
)

// ScanTimeout bounds a port enumeration (CoreMIDI can hang)
const ScanTimeout = 3 * time.Second

// Ports is a snapshot of the available ports
type Ports struct {
	In  []drivers.In
	Out []drivers.Out
}

// ListPorts enumerates ports, giving up after timeout
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{In: gomidi.GetInPorts(), Out: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, ErrPortScanTimeout
	}
}

// FindIn returns the first input whose name contains name (case-insensitive).
// An empty name picks the first input that isn't a loopback "through" port.
func (p Ports) FindIn(name string) (drivers.In, error) {
	for _, in := range p.In {
		if portMatches(in.String(), name) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("input %q: %w", name, ErrPortNotFound)
}

// FindOut is FindIn for outputs
func (p Ports) FindOut(name string) (drivers.Out, error) {
	for _, out := range p.Out {
		if portMatches(out.String(), name) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("output %q: %w", name, ErrPortNotFound)
}

// Without returns the ports whose names don't satisfy match, so the
// performer input never lands on a control surface
func (p Ports) Without(match func(portName string) bool) Ports {
	var out Ports
	for _, in := range p.In {
		if !match(in.String()) {
			out.In = append(out.In, in)
		}
	}
	for _, o := range p.Out {
		if !match(o.String()) {
			out.Out = append(out.Out, o)
		}
	}
	return out
}

func portMatches(portName, want string) bool {
	lower := strings.ToLower(portName)
	if want == "" {
		return !strings.Contains(lower, "through")
	}
	return strings.Contains(lower, strings.ToLower(want))
}

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of control surfaces
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	match       func(portName string) bool
	open        func(id string, in drivers.In, out drivers.Out) (Controller, error)
}

// NewDeviceManager creates a new device manager that attaches Launchpads
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		match:       IsLaunchpad,
		open: func(id string, in drivers.In, out drivers.Out) (Controller, error) {
			return NewLaunchpadController(id, in, out)
		},
	}
}

// SetMatcher chooses which input ports are treated as control surfaces
func (dm *DeviceManager) SetMatcher(match func(portName string) bool) {
	if match != nil {
		dm.match = match
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	snapshot := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		snapshot[k] = v
	}
	return snapshot
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scanPorts()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scanPorts()
		}
	}
}

func (dm *DeviceManager) scanPorts() {
	ports, err := ListPorts(ScanTimeout)
	if err != nil {
		debug.Log("devices", "scan skipped: %v", err)
		return
	}
	dm.reconcile(ports.In, ports.Out)
}

// reconcile attaches new matching ports and drops vanished ones
func (dm *DeviceManager) reconcile(inPorts []drivers.In, outPorts []drivers.Out) {
	seenIDs := make(map[string]bool)

	for _, inPort := range inPorts {
		id := inPort.String()
		if !dm.match(id) {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		var outPort drivers.Out
		for _, op := range outPorts {
			if strings.EqualFold(op.String(), id) {
				outPort = op
				break
			}
		}

		c, err := dm.open(id, inPort, outPort)
		if err != nil {
			debug.Log("devices", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()

		debug.Log("devices", "connected %s", id)
		dm.emit(DeviceEvent{Type: DeviceConnected, Controller: c, ID: id})
	}

	dm.mu.Lock()
	var gone []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		dm.controllers[id].Close()
		delete(dm.controllers, id)
	}
	dm.mu.Unlock()

	for _, id := range gone {
		debug.Log("devices", "disconnected %s", id)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

// emit never blocks the scanner; a full queue drops the event
func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
		debug.Log("devices", "event queue full, dropped %s", ev.ID)
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// IsLaunchpad matches Launchpad MIDI ports (not the DAW ports)
func IsLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}
