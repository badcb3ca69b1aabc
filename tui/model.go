package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"midi-looper/looper"
	"midi-looper/midi"
	"midi-looper/surface"
	"midi-looper/theme"
	"midi-looper/widgets"
)

// pass counters change without a controller update
const refreshRate = 250 * time.Millisecond

type Model struct {
	Looper    surface.Looper
	DeviceMgr *midi.DeviceManager // nil when no surface is wanted
	Surface   *surface.Surface
	Theme     *theme.Theme
	Ports     string // "in -> out" description for the header

	keys     KeyMap
	help     help.Model
	updates  <-chan struct{}
	status   looper.Status
	device   string
	quitting bool
}

type UpdateMsg struct{}

type TickMsg time.Time

type DeviceEventMsg midi.DeviceEvent

func NewModel(l surface.Looper, deviceMgr *midi.DeviceManager, surf *surface.Surface, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Looper:    l,
		DeviceMgr: deviceMgr,
		Surface:   surf,
		Theme:     th,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		updates:   l.Subscribe(),
		status:    l.Status(),
	}
}

func ListenForUpdates(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.updates),
		ListenForDevices(m.DeviceMgr),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Record):
			m.Looper.Record()
		case key.Matches(msg, m.keys.Overdub):
			m.Looper.Overdub()
		case key.Matches(msg, m.keys.Undo):
			m.Looper.Undo()
		case key.Matches(msg, m.keys.Redo):
			m.Looper.Redo()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.status = m.Looper.Status()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		m.status = m.Looper.Status()
		return m, ListenForUpdates(m.updates)

	case TickMsg:
		m.status = m.Looper.Status()
		return m, tick()

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.device = event.ID
			if m.Surface != nil {
				m.Surface.SetDevice(event.Controller)
			}
		case midi.DeviceDisconnected:
			if m.device == event.ID {
				m.device = ""
				if m.Surface != nil {
					m.Surface.SetDevice(nil)
				}
			}
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	deviceStatus := ""
	if m.device != "" {
		deviceStatus = "  LP:" + m.device
	}
	header := headerStyle.Render(fmt.Sprintf("midi-looper  loops:%d  undo:%d%s",
		len(m.status.Loops), len(m.status.Undo), deviceStatus))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	if m.Ports != "" {
		out.WriteString(dimStyle.Render(m.Ports))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	if len(m.status.Loops) == 0 && len(m.status.Undo) == 0 {
		out.WriteString(dimStyle.Render("  no loops yet, press r to record"))
		out.WriteString("\n")
	}

	// top of the stack first
	for i := len(m.status.Loops) - 1; i >= 0; i-- {
		out.WriteString(m.loopRow(m.status.Loops[i], fgStyle))
		out.WriteString("\n")
	}
	for i := len(m.status.Undo) - 1; i >= 0; i-- {
		out.WriteString(m.undoRow(m.status.Undo[i], dimStyle))
		out.WriteString("\n")
	}

	if m.Surface != nil {
		out.WriteString("\n")
		out.WriteString(widgets.RenderPadPreview(surface.Render(m.status, m.Theme), 3))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(m.Theme.Loop.Recording, "Record", "bottom left, pulses while recording"))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(m.Theme.Loop.Playing, "Loop", "row 2, one pad per layer"))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(m.Theme.Loop.Undone, "Undo", "row 3, one pad per undone layer"))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) loopRow(info looper.Info, style lipgloss.Style) string {
	symbol, color := m.Theme.Symbols.Stopped, m.Theme.Loop.Stopped
	switch info.State {
	case looper.Recording:
		symbol, color = m.Theme.Symbols.Recording, m.Theme.Loop.Recording
	case looper.Playing:
		symbol, color = m.Theme.Symbols.Playing, m.Theme.Loop.Playing
	}
	mark := lipgloss.NewStyle().Foreground(m.Theme.Lip(color)).Render(string(symbol))
	return fmt.Sprintf("  %s %s", mark, style.Render(describe(info)))
}

func (m Model) undoRow(info looper.Info, style lipgloss.Style) string {
	mark := lipgloss.NewStyle().Foreground(m.Theme.Lip(m.Theme.Loop.Undone)).Render(string(m.Theme.Symbols.Undone))
	return fmt.Sprintf("  %s %s", mark, style.Render(describe(info)+"  (undone)"))
}

func describe(info looper.Info) string {
	return fmt.Sprintf("loop %-3d %-9s ch%-2d %4d events  %6.2fs  x%d",
		info.ID, info.State, info.Channel+1, info.Actions, info.Length.Seconds(), info.Passes)
}
