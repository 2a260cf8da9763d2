package hwio

import "time"

// SelectBus drives the shared select lines of one or more multiplexers.
// N lines encode a binary channel index 0..2^N-1, line 0 being the least
// significant bit.
type SelectBus struct {
	lines []OutputPin
}

func NewSelectBus(lines ...OutputPin) *SelectBus {
	return &SelectBus{lines: lines}
}

// NumChannels returns how many channels the select lines can address.
func (b *SelectBus) NumChannels() int { return 1 << len(b.lines) }

// Select drives the lines to address the given channel. The analog output
// is not valid until the settle delay has elapsed.
func (b *SelectBus) Select(channel int) {
	for i, line := range b.lines {
		line.Set(channel&(1<<i) != 0)
	}
}

// Mux is one analog multiplexer: shared select lines, an optional
// active-low enable, and the converter input its common pin feeds.
type Mux struct {
	sel    *SelectBus
	enable OutputPin // active low; nil when hard-wired enabled
	adc    AnalogReader
	settle time.Duration
}

func NewMux(sel *SelectBus, enable OutputPin, adc AnalogReader, settle time.Duration) *Mux {
	return &Mux{sel: sel, enable: enable, adc: adc, settle: settle}
}

// Enable drives the enable line active (low).
func (m *Mux) Enable() {
	if m.enable != nil {
		m.enable.Set(false)
	}
}

// Disable drives the enable line inactive (high), leaving the mux
// disconnected so it neither draws nor interferes.
func (m *Mux) Disable() {
	if m.enable != nil {
		m.enable.Set(true)
	}
}

// Read addresses a channel, waits the settle delay for the analog switch
// to propagate, and samples the converter. Enable state is the caller's
// business: a lone mux can stay enabled, a bank must switch first.
func (m *Mux) Read(channel int) (uint16, error) {
	m.sel.Select(channel)
	if m.settle > 0 {
		time.Sleep(m.settle)
	}
	return m.adc.ReadU16()
}

// Bank is a pair of multiplexers sharing select lines, each with its own
// enable and its own converter input. Exactly one side is enabled while a
// channel is read, and both are disabled between scan passes.
type Bank struct {
	A, B *Mux
}

// Read samples one channel on the named side ('a' or 'b'), enabling that
// side and disabling the other first.
func (bk *Bank) Read(side byte, channel int) (uint16, error) {
	if side == 'b' {
		bk.A.Disable()
		bk.B.Enable()
		return bk.B.Read(channel)
	}
	bk.B.Disable()
	bk.A.Enable()
	return bk.A.Read(channel)
}

// Idle disables both sides. Call it after a full scan pass.
func (bk *Bank) Idle() {
	bk.A.Disable()
	bk.B.Disable()
}
