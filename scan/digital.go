package scan

import (
	"github.com/panforge/pan/hwio"
	"github.com/panforge/pan/layout"
)

type digitalPad struct {
	pin    hwio.InputPin
	note   *layout.Note
	active bool
}

// Digital scans plain digital inputs at a fixed velocity: pulled-up
// buttons (active low) or capacitive touch pads (active high).
type Digital struct {
	pads       []digitalPad
	activeHigh bool
}

// NewButtons binds pulled-up, active-low button pins to notes.
// Bindings naming an unknown pin or note are dropped with a warning.
func NewButtons(board hwio.Board, pins map[string]layout.PadRef, reg *layout.Registry, logf Logf) *Digital {
	return newDigital(board.InputPin, false, pins, reg, logf)
}

// NewTouch binds capacitive touch pads, which read active high.
func NewTouch(board hwio.Board, pins map[string]layout.PadRef, reg *layout.Registry, logf Logf) *Digital {
	return newDigital(board.TouchPin, true, pins, reg, logf)
}

func newDigital(pinFn func(string) (hwio.InputPin, error), activeHigh bool, pins map[string]layout.PadRef, reg *layout.Registry, logf Logf) *Digital {
	d := &Digital{activeHigh: activeHigh}
	for pinName, ref := range pins {
		note := reg.Find(ref.Note)
		if note == nil {
			logf.printf("input %s: note %q not in layout, dropped", pinName, ref.Note)
			continue
		}
		pin, err := pinFn(pinName)
		if err != nil {
			logf.printf("input %s: %v, dropped", pinName, err)
			continue
		}
		d.pads = append(d.pads, digitalPad{pin: pin, note: note})
	}
	return d
}

func (d *Digital) Len() int { return len(d.pads) }

func (d *Digital) Scan() (pressed []Strike, released []*layout.Note) {
	for i := range d.pads {
		p := &d.pads[i]
		active := p.pin.Get() == d.activeHigh
		switch {
		case active && !p.active:
			pressed = append(pressed, Strike{Note: p.note, Velocity: DefaultVelocity})
		case !active && p.active:
			released = append(released, p.note)
		}
		p.active = active
	}
	return pressed, released
}
