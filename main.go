package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-looper/config"
	"midi-looper/debug"
	"midi-looper/looper"
	"midi-looper/midi"
	"midi-looper/surface"
	"midi-looper/theme"
	"midi-looper/tui"
)

var flags struct {
	config    string
	in        string
	out       string
	channel   int
	thru      bool
	debug     bool
	palette   string
	noSurface bool
	save      bool
}

var rootCmd = &cobra.Command{
	Use:   "midi-looper",
	Short: "A live MIDI looper",
	Long: `midi-looper records what you play on a MIDI input and loops it back
out, layer on layer.

  r  record, then again to close the loop and start playback
  o  overdub: close the current layer and record a new one on top
  u  undo the top layer
  y  redo

A Launchpad, if connected, mirrors the same four actions on its bottom row.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&flags.config, "config", "c", "",
		"Config file (default ~/.config/midi-looper/config.json)")
	rootCmd.Flags().StringVarP(&flags.in, "in", "i", "",
		"Input port name (substring match, empty picks the first)")
	rootCmd.Flags().StringVarP(&flags.out, "out", "o", "",
		"Output port name (substring match, empty picks the first)")
	rootCmd.Flags().IntVar(&flags.channel, "channel", 1,
		"Output MIDI channel for recorded loops (1-16)")
	rootCmd.Flags().BoolVar(&flags.thru, "thru", false,
		"Echo live input to the output")
	rootCmd.Flags().BoolVar(&flags.debug, "debug", false,
		"Write debug logs to "+debug.Path())
	rootCmd.Flags().StringVar(&flags.palette, "palette", "",
		"GIMP .gpl palette for the UI")
	rootCmd.Flags().BoolVar(&flags.noSurface, "no-surface", false,
		"Don't attach control surfaces")
	rootCmd.Flags().BoolVar(&flags.save, "save", false,
		"Save the effective settings to the config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies any flags the user set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.config != "" {
		cfg, err = config.LoadFrom(flags.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("in") {
		cfg.Input.PortName = flags.in
	}
	if f.Changed("out") {
		cfg.Output.PortName = flags.out
	}
	if f.Changed("channel") {
		cfg.Output.Channel = flags.channel
	}
	if f.Changed("thru") {
		cfg.Input.Thru = flags.thru
	}
	if f.Changed("debug") {
		cfg.UI.Debug = flags.debug
	}
	if f.Changed("palette") {
		if cfg.UI.Palette, err = homedir.Expand(flags.palette); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if flags.save {
		if flags.config != "" {
			err = cfg.SaveTo(flags.config)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
	}
	return cfg, nil
}

func loadTheme(path string) *theme.Theme {
	if path == "" {
		return theme.New(nil)
	}
	palette, err := theme.LoadGPL(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "palette: %v (using default)\n", err)
		return theme.New(nil)
	}
	return theme.New(palette)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.UI.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}
	defer gomidi.CloseDriver()

	ports, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
	}
	if !flags.noSurface {
		ports = ports.Without(cfg.IsSurfacePort)
	}

	inPort, err := ports.FindIn(cfg.Input.PortName)
	if err != nil {
		return err
	}
	outPort, err := ports.FindOut(cfg.Output.PortName)
	if err != nil {
		return err
	}

	src, err := midi.NewPortSource(inPort.String(), inPort)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := midi.NewPortSink(outPort)
	if err != nil {
		return err
	}

	channel := uint8(cfg.Output.Channel - 1)
	if cfg.Input.Thru {
		src.SetThru(sink, channel)
	}

	ctrl, err := looper.NewController(src, sink, channel)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	debug.Log("main", "in=%q out=%q channel=%d thru=%v", inPort, outPort, cfg.Output.Channel, cfg.Input.Thru)

	th := loadTheme(cfg.UI.Palette)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var deviceMgr *midi.DeviceManager
	var surf *surface.Surface
	if !flags.noSurface && len(cfg.AutoConnectControllers()) > 0 {
		deviceMgr = midi.NewDeviceManager()
		deviceMgr.SetMatcher(cfg.IsSurfacePort)
		surf = surface.New(ctrl, th)
		go surf.Run(ctx)
		go deviceMgr.Run(ctx)
	}

	m := tui.NewModel(ctrl, deviceMgr, surf, th)
	m.Ports = fmt.Sprintf("%s -> %s  ch%d", inPort, outPort, cfg.Output.Channel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err = p.Run()
	return err
}
