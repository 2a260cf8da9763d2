package scan

import (
	"fmt"
	"time"

	"github.com/panforge/pan/hwio"
	"github.com/panforge/pan/layout"
)

type muxPad struct {
	pin     hwio.InputPin
	note    *layout.Note
	channel int
	hasVel  bool
	active  bool
}

// MuxTouch combines a digital trigger pin per pad with one multiplexer
// channel carrying the strike intensity. The channel is sampled only on
// the press edge, just before the event is emitted.
type MuxTouch struct {
	pads []muxPad
	mux  *hwio.Mux
	logf Logf
}

// NewMuxTouch builds the mixed digital-trigger/analog-velocity scanner.
// Pads without a mux channel fall back to the fixed default velocity.
func NewMuxTouch(board hwio.Board, hw *layout.Hardware, reg *layout.Registry, logf Logf) (*MuxTouch, error) {
	m := &MuxTouch{logf: logf}

	if len(hw.Mux.SelectPins) > 0 {
		sel, err := newSelectBus(board, hw.Mux.SelectPins)
		if err != nil {
			return nil, err
		}
		adc, err := newMuxADC(board, hw, hw.Mux.AnalogPin, 0)
		if err != nil {
			return nil, err
		}
		settle := time.Duration(hw.Mux.SettleUS) * time.Microsecond
		m.mux = hwio.NewMux(sel, nil, adc, settle)
	}

	for pinName, ref := range hw.Pins {
		note := reg.Find(ref.Note)
		if note == nil {
			logf.printf("input %s: note %q not in layout, dropped", pinName, ref.Note)
			continue
		}
		pin, err := board.InputPin(pinName)
		if err != nil {
			logf.printf("input %s: %v, dropped", pinName, err)
			continue
		}
		pad := muxPad{pin: pin, note: note}
		if ref.MuxChannel != nil && m.mux != nil {
			pad.channel = *ref.MuxChannel
			pad.hasVel = true
		}
		m.pads = append(m.pads, pad)
	}
	return m, nil
}

func (m *MuxTouch) Len() int { return len(m.pads) }

func (m *MuxTouch) Scan() (pressed []Strike, released []*layout.Note) {
	for i := range m.pads {
		p := &m.pads[i]
		active := !p.pin.Get() // active low, pulled up
		switch {
		case active && !p.active:
			pressed = append(pressed, Strike{Note: p.note, Velocity: m.readVelocity(p)})
		case !active && p.active:
			released = append(released, p.note)
		}
		p.active = active
	}
	return pressed, released
}

func (m *MuxTouch) readVelocity(p *muxPad) int {
	if !p.hasVel {
		return DefaultVelocity
	}
	raw, err := m.mux.Read(p.channel)
	if err != nil {
		m.logf.printf("velocity read %s: %v", p.note.Display(), err)
		return DefaultVelocity
	}
	return velocityFromRaw(raw)
}

func newSelectBus(board hwio.Board, names []string) (*hwio.SelectBus, error) {
	lines := make([]hwio.OutputPin, 0, len(names))
	for _, name := range names {
		pin, err := board.OutputPin(name, false)
		if err != nil {
			return nil, fmt.Errorf("select pin %s: %w", name, err)
		}
		lines = append(lines, pin)
	}
	return hwio.NewSelectBus(lines...), nil
}

// newMuxADC picks the analog back-end for a mux common pin: the external
// register-bus converter when the layout asks for it, the board-native
// converter otherwise. channel selects the external converter input.
func newMuxADC(board hwio.Board, hw *layout.Hardware, pinName string, channel int) (hwio.AnalogReader, error) {
	if hw.ADC != nil && hw.ADC.Type == "i2c" {
		bus, err := board.I2C(hw.ADC.SDA, hw.ADC.SCL)
		if err != nil {
			return nil, fmt.Errorf("adc bus: %w", err)
		}
		return hwio.NewADS1115(bus, 0).Input(channel), nil
	}
	adc, err := board.Analog(pinName)
	if err != nil {
		return nil, fmt.Errorf("analog pin %s: %w", pinName, err)
	}
	return adc, nil
}
