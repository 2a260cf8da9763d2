// Command pansim plays the pan from a computer keyboard: a terminal UI
// maps qwerty keys to the layout's notes and feeds the same engine the
// firmware runs, so samples and mixing behavior can be tried without any
// hardware. Strikes can optionally be forwarded to a MIDI output port.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/panforge/pan"
	"github.com/panforge/pan/audioout"
	"github.com/panforge/pan/layout"
)

func main() {
	layoutPath := flag.String("layout", "layout.json", "path to the pan layout file")
	soundsDir := flag.String("sounds", "", "override the sample directory from the layout")
	midiPort := flag.String("midi", "", "forward strikes to the MIDI out port containing this name (\"list\" to show ports)")
	flag.Parse()

	if *midiPort == "list" {
		for _, p := range gomidi.GetOutPorts() {
			fmt.Println(p.String())
		}
		gomidi.CloseDriver()
		return
	}

	f, err := layout.Load(*layoutPath)
	if err != nil {
		log.Fatalf("layout: %v", err)
	}
	if *soundsDir != "" {
		f.Hardware.SoundsDir = *soundsDir
	}
	reg := f.Registry()
	if reg.Len() == 0 {
		log.Fatalf("layout %s defines no playable notes", *layoutPath)
	}

	out, err := audioout.NewPlayer(f.Hardware.SampleRate, pan.DefaultChunkSize)
	if err != nil {
		log.Fatalf("audio: %v", err)
	}
	defer out.Close()

	engine := pan.NewEngine(pan.Config{
		Out:       out,
		Voices:    f.Hardware.MaxVoices,
		SoundsDir: f.Hardware.SoundsDir,
		Logf:      func(string, ...any) {}, // the TUI owns the terminal
	})

	var player pan.NotePlayer
	toneFallback := false
	if engine.LoadAll(reg) > 0 {
		engine.Start()
		player = engine
		defer engine.Close()
	} else {
		toneFallback = true
		tones := pan.NewToneEngine(out, f.Hardware.SampleRate, pan.DefaultChunkSize, nil)
		tones.Start()
		player = tones
		defer tones.Close()
	}

	send, err := openMIDI(*midiPort)
	if err != nil {
		log.Fatalf("midi: %v", err)
	}
	defer gomidi.CloseDriver()

	m := newModel(player, reg, send, toneFallback)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatalf("ui: %v", err)
	}
	player.AllOff()
}

// openMIDI resolves the first out port whose name contains the given
// string. An empty name disables forwarding.
func openMIDI(name string) (func(gomidi.Message) error, error) {
	if name == "" {
		return nil, nil
	}
	for _, port := range gomidi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), strings.ToLower(name)) {
			return gomidi.SendTo(port)
		}
	}
	fmt.Fprintf(os.Stderr, "no MIDI out port matching %q; ports:\n", name)
	for _, p := range gomidi.GetOutPorts() {
		fmt.Fprintln(os.Stderr, "  "+p.String())
	}
	return nil, fmt.Errorf("port %q not found", name)
}
