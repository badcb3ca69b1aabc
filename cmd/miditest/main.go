package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-looper/midi"
)

var sendFlags struct {
	channel  int
	note     int
	velocity int
	length   time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "miditest",
	Short: "MIDI port checks for midi-looper",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("(waiting up to 3 seconds...)")
		ports, err := midi.ListPorts(midi.ScanTimeout)
		if err != nil {
			fmt.Println("Fix: sudo killall coreaudiod midiserver")
			return err
		}
		fmt.Println("=== MIDI Input Ports ===")
		for i, p := range ports.In {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range ports.Out {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Find a Launchpad",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midi.ListPorts(midi.ScanTimeout)
		if err != nil {
			return err
		}
		found := false
		for _, p := range ports.In {
			if midi.IsLaunchpad(p.String()) {
				fmt.Printf("Found input: %s\n", p.String())
				found = true
			}
		}
		for _, p := range ports.Out {
			if midi.IsLaunchpad(p.String()) {
				fmt.Printf("Found output: %s\n", p.String())
			}
		}
		if !found {
			fmt.Println("Launchpad not found")
		}
		return nil
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor [input]",
	Short: "Print what the looper would record from an input",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midi.ListPorts(midi.ScanTimeout)
		if err != nil {
			return err
		}
		in, err := ports.FindIn(strings.Join(args, " "))
		if err != nil {
			return err
		}

		start := time.Now()
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
			ev, ok := midi.Decode(msg)
			if !ok {
				return
			}
			fmt.Printf("%8dms  ch%-2d %s\n", time.Since(start).Milliseconds(), ev.Channel+1, ev.Describe())
		}, gomidi.UseSysEx())
		if err != nil {
			return fmt.Errorf("listen %s: %w", in, err)
		}
		defer stop()

		fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", in)
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		<-ctx.Done()
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [output]",
	Short: "Play a test note on an output",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sendFlags.channel < 1 || sendFlags.channel > 16 {
			return fmt.Errorf("channel %d out of range 1-16", sendFlags.channel)
		}
		ports, err := midi.ListPorts(midi.ScanTimeout)
		if err != nil {
			return err
		}
		out, err := ports.FindOut(strings.Join(args, " "))
		if err != nil {
			return err
		}
		sink, err := midi.NewPortSink(out)
		if err != nil {
			return err
		}

		ch := uint8(sendFlags.channel - 1)
		note := midi.NoteOnEvent(ch, uint8(sendFlags.note), uint8(sendFlags.velocity))
		fmt.Printf("Sending %s on %s ch%d\n", note.Describe(), sink.Name(), sendFlags.channel)

		for _, ev := range []midi.Event{
			note,
			midi.Wait(sendFlags.length),
			midi.NoteOffEvent(ch, uint8(sendFlags.note), 0),
		} {
			ev.Emit(context.Background(), sink)
		}
		if n := sink.Failed(); n > 0 {
			return fmt.Errorf("%d sends failed", n)
		}
		return nil
	},
}

var ledsCmd = &cobra.Command{
	Use:   "leds",
	Short: "Light the looper's pads on a Launchpad",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midi.ListPorts(midi.ScanTimeout)
		if err != nil {
			return err
		}
		in, err := ports.FindIn("launchpad x lpx midi")
		if err != nil {
			return err
		}
		out, err := ports.FindOut("launchpad x lpx midi")
		if err != nil {
			return err
		}

		lp, err := midi.NewLaunchpadController(in.String(), in, out)
		if err != nil {
			return err
		}
		defer lp.Close()

		err = lp.SetLEDBatch([]midi.LEDUpdate{
			{Row: 0, Col: 0, Color: [3]uint8{255, 0, 0}, Channel: midi.ChannelPulse},
			{Row: 0, Col: 1, Color: [3]uint8{180, 180, 180}},
			{Row: 0, Col: 2, Color: [3]uint8{180, 180, 180}},
			{Row: 0, Col: 3, Color: [3]uint8{180, 180, 180}},
			{Row: 1, Col: 0, Color: [3]uint8{0, 255, 0}},
		})
		if err != nil {
			return err
		}

		fmt.Println("Press pads to see events, Enter to clear...")
		go func() {
			for ev := range lp.PadEvents() {
				fmt.Printf("  pad row=%d col=%d vel=%d\n", ev.Row, ev.Col, ev.Velocity)
			}
		}()
		fmt.Scanln()
		return nil
	},
}

func init() {
	sendCmd.Flags().IntVar(&sendFlags.channel, "channel", 1, "MIDI channel (1-16)")
	sendCmd.Flags().IntVar(&sendFlags.note, "note", 60, "Note number")
	sendCmd.Flags().IntVar(&sendFlags.velocity, "velocity", 100, "Note velocity")
	sendCmd.Flags().DurationVar(&sendFlags.length, "length", 500*time.Millisecond, "Note length")

	rootCmd.AddCommand(listCmd, detectCmd, monitorCmd, sendCmd, ledsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	gomidi.CloseDriver()
}
