package scan

import (
	"time"

	"github.com/panforge/pan/hwio"
	"github.com/panforge/pan/layout"
)

type analogPad struct {
	note    *layout.Note
	side    byte
	channel int
	active  bool
	failing bool
}

// MuxScan reads every pad purely by analog magnitude: a value above the
// configured threshold counts as active, and velocity comes from how far
// above it the reading sits. Pads are partitioned across a dual mux bank
// with shared select lines.
type MuxScan struct {
	pads      []analogPad
	bank      *hwio.Bank
	threshold int
	logf      Logf
}

// NewMuxScan builds the pure-analog scanner from the layout's pads list.
func NewMuxScan(board hwio.Board, hw *layout.Hardware, reg *layout.Registry, logf Logf) (*MuxScan, error) {
	sel, err := newSelectBus(board, hw.Mux.SelectPins)
	if err != nil {
		return nil, err
	}
	settle := time.Duration(hw.Mux.SettleUS) * time.Microsecond

	buildSide := func(cfg layout.BankConfig, channel int) (*hwio.Mux, error) {
		adc, err := newMuxADC(board, hw, cfg.AnalogPin, channel)
		if err != nil {
			return nil, err
		}
		var enable hwio.OutputPin
		if cfg.EnablePin != "" {
			// Enables are active low; start disabled.
			enable, err = board.OutputPin(cfg.EnablePin, true)
			if err != nil {
				return nil, err
			}
		}
		return hwio.NewMux(sel, enable, adc, settle), nil
	}

	muxA, err := buildSide(hw.Mux.MuxA, 0)
	if err != nil {
		return nil, err
	}
	muxB, err := buildSide(hw.Mux.MuxB, 1)
	if err != nil {
		return nil, err
	}

	m := &MuxScan{
		bank:      &hwio.Bank{A: muxA, B: muxB},
		threshold: hw.Mux.Threshold,
		logf:      logf,
	}

	for _, pad := range hw.Pads {
		note := reg.Find(pad.Note)
		if note == nil {
			logf.printf("pad %q: note not in layout, dropped", pad.Note)
			continue
		}
		side := byte('a')
		if pad.Mux == "b" || pad.Mux == "B" {
			side = 'b'
		}
		if pad.Channel < 0 || pad.Channel >= sel.NumChannels() {
			logf.printf("pad %s: channel %d not addressable, dropped", note.Display(), pad.Channel)
			continue
		}
		m.pads = append(m.pads, analogPad{note: note, side: side, channel: pad.Channel})
	}
	return m, nil
}

func (m *MuxScan) Len() int { return len(m.pads) }

func (m *MuxScan) Scan() (pressed []Strike, released []*layout.Note) {
	for i := range m.pads {
		p := &m.pads[i]

		raw, err := m.bank.Read(p.side, p.channel)
		if err != nil {
			// A failed conversion reads as inactive for this tick only;
			// the rest of the pass continues. Warn once per failure streak,
			// not once per tick.
			if !p.failing {
				m.logf.printf("pad %s: %v", p.note.Display(), err)
				p.failing = true
			}
			raw = 0
		} else {
			p.failing = false
		}

		active := int(raw) > m.threshold
		switch {
		case active && !p.active:
			pressed = append(pressed, Strike{
				Note:     p.note,
				Velocity: velocityAboveThreshold(raw, m.threshold),
			})
		case !active && p.active:
			released = append(released, p.note)
		}
		p.active = active
	}

	m.bank.Idle()
	return pressed, released
}
