// Command steelpan is the firmware entrypoint for the electronic steel
// pan: it loads the layout file, opens the audio output, starts the
// mixing engine and pumps the configured input scanner into it.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/panforge/pan"
	"github.com/panforge/pan/audioout"
	"github.com/panforge/pan/hwio"
	"github.com/panforge/pan/layout"
	"github.com/panforge/pan/scan"
)

// scanInterval is the pad polling cadence. 50 Hz keeps worst-case strike
// latency around 20ms, below what a player notices on a percussive attack.
const scanInterval = 20 * time.Millisecond

func main() {
	layoutPath := flag.String("layout", "layout.json", "path to the pan layout file")
	soundsDir := flag.String("sounds", "", "override the sample directory from the layout")
	demo := flag.Bool("demo", false, "ignore inputs and play the demo sequence")
	flag.Parse()

	log.SetFlags(log.Ltime)

	f, err := layout.Load(*layoutPath)
	if err != nil {
		color.Red("layout: %v", err)
		os.Exit(1)
	}
	if *soundsDir != "" {
		f.Hardware.SoundsDir = *soundsDir
	}
	reg := f.Registry()
	if reg.Len() == 0 {
		color.Red("layout %s defines no playable notes", *layoutPath)
		os.Exit(1)
	}
	color.Cyan("steelpan: %d notes, %s..%s",
		reg.Len(),
		layout.DisplayName(reg.Notes()[0].Pitch),
		layout.DisplayName(reg.Notes()[reg.Len()-1].Pitch))

	out, err := audioout.NewPlayer(f.Hardware.SampleRate, pan.DefaultChunkSize)
	if err != nil {
		color.Red("audio: %v", err)
		os.Exit(1)
	}
	defer out.Close()

	engine := pan.NewEngine(pan.Config{
		Out:       out,
		Voices:    f.Hardware.MaxVoices,
		SoundsDir: f.Hardware.SoundsDir,
		Logf:      log.Printf,
	})

	var player pan.NotePlayer
	var stopPlayer func()
	if engine.LoadAll(reg) > 0 {
		engine.Start()
		player = engine
		stopPlayer = engine.Close
	} else {
		// No samples on disk: degrade to square-wave tones rather than
		// booting a silent instrument.
		color.Yellow("no samples found in %s, using tone fallback", f.Hardware.SoundsDir)
		tones := pan.NewToneEngine(out, f.Hardware.SampleRate, pan.DefaultChunkSize, log.Printf)
		tones.Start()
		player = tones
		stopPlayer = tones.Close
	}
	defer stopPlayer()

	board := newBoard()

	if f.Hardware.LEDPin != "" {
		if led, err := board.OutputPin(f.Hardware.LEDPin, true); err != nil {
			log.Printf("status LED %s: %v", f.Hardware.LEDPin, err)
		} else {
			defer led.Set(false)
		}
	}

	sc := newScanner(board, f, reg)

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	if *demo || sc == nil || sc.Len() == 0 {
		if !*demo {
			color.Yellow("no usable inputs, entering demo mode")
		}
		runDemo(player, reg, stop)
	} else {
		color.Green("ready: %s mode, %d pads", f.Hardware.InputMode, sc.Len())
		scan.Pump(sc, player, scanInterval, stop, log.Printf)
	}

	player.AllOff()
}

// newScanner builds the scanner named by the layout's input mode. A nil
// return means no inputs could be bound; the caller falls back to demo
// mode instead of aborting.
func newScanner(board hwio.Board, f *layout.File, reg *layout.Registry) scan.Scanner {
	hw := &f.Hardware
	switch hw.InputMode {
	case "button":
		return scan.NewButtons(board, hw.Pins, reg, log.Printf)
	case "touch":
		return scan.NewTouch(board, hw.Pins, reg, log.Printf)
	case "mux_touch":
		sc, err := scan.NewMuxTouch(board, hw, reg, log.Printf)
		if err != nil {
			log.Printf("mux_touch: %v", err)
			return nil
		}
		return sc
	case "mux_scan":
		sc, err := scan.NewMuxScan(board, hw, reg, log.Printf)
		if err != nil {
			log.Printf("mux_scan: %v", err)
			return nil
		}
		return sc
	default:
		log.Printf("unknown input_mode %q", hw.InputMode)
		return nil
	}
}
