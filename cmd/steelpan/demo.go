package main

import (
	"time"

	"github.com/panforge/pan"
	"github.com/panforge/pan/layout"
)

// runDemo plays the pan by itself: an ascending sweep over every note,
// then a triad held from the lowest notes. It repeats until stop closes.
// Demo mode doubles as a soak test for the mixing engine on a bench with
// no pads wired.
func runDemo(player pan.NotePlayer, reg *layout.Registry, stop <-chan struct{}) {
	notes := reg.Notes()
	for {
		for _, n := range notes {
			player.NoteOn(n.Pitch, 100)
			if !sleep(250*time.Millisecond, stop) {
				return
			}
			player.NoteOff(n.Pitch)
		}

		// Triad over the three lowest notes, or whatever is available.
		chord := notes
		if len(chord) > 3 {
			chord = chord[:3]
		}
		for _, n := range chord {
			player.NoteOn(n.Pitch, 127)
		}
		if !sleep(time.Second, stop) {
			return
		}
		for _, n := range chord {
			player.NoteOff(n.Pitch)
		}
		if !sleep(time.Second, stop) {
			return
		}
	}
}

func sleep(d time.Duration, stop <-chan struct{}) bool {
	select {
	case <-time.After(d):
		return true
	case <-stop:
		return false
	}
}
