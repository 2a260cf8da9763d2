package scan

import (
	"time"
)

// NotePlayer is the slice of the audio engine the dispatch loop needs.
type NotePlayer interface {
	NoteOn(pitch, velocity int)
	NoteOff(pitch int)
}

// Pump is the dispatch loop: it polls the scanner at the given interval
// and forwards press/release events to the player until stop is closed.
func Pump(sc Scanner, player NotePlayer, interval time.Duration, stop <-chan struct{}, logf Logf) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		pressed, released := sc.Scan()
		for _, s := range pressed {
			logf.printf("ON  %-4s (%.0f Hz, vel=%d)", s.Note.Display(), s.Note.Freq, s.Velocity)
			player.NoteOn(s.Note.Pitch, s.Velocity)
		}
		for _, n := range released {
			logf.printf("OFF %s", n.Display())
			player.NoteOff(n.Pitch)
		}
	}
}
