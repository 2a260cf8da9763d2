package hwio

import (
	"errors"
	"time"
)

// ADS1115 drives a TI ADS1115 16-bit converter over a register bus in
// single-shot mode: write a config word selecting the input and starting a
// conversion, poll the ready bit, then read the signed result.
// Readings are offset into the unsigned 0..65535 range so both converter
// back-ends share one numeric contract.
type ADS1115 struct {
	bus  RegisterBus
	addr uint8
	buf  [2]byte
}

// ADS1115 register map and config bits.
const (
	DefaultADS1115Addr = 0x48

	adsConvReg = 0x00
	adsConfReg = 0x01

	// OS (single-shot start) | PGA +/-4.096V | 860 SPS | comparator off.
	adsBaseConfig = 0x8100 | 0x0200 | 0x00E0 | 0x0003

	adsReadyBit = 0x80 // high byte of the config register

	// Worst-case conversion time at 860 SPS is ~1.2ms.
	adsConversionWait = 2 * time.Millisecond
	adsPollInterval   = 200 * time.Microsecond
	adsPollLimit      = 10
)

// Single-ended input mux bits for channels A0..A3.
var adsMuxBits = [4]uint16{0x4000, 0x5000, 0x6000, 0x7000}

var errConversionTimeout = errors.New("conversion not ready")

func NewADS1115(bus RegisterBus, addr uint8) *ADS1115 {
	if addr == 0 {
		addr = DefaultADS1115Addr
	}
	return &ADS1115{bus: bus, addr: addr}
}

// ReadChannel performs one single-shot conversion on a single-ended
// channel 0..3 and returns the reading in the 0..65535 range.
func (a *ADS1115) ReadChannel(channel int) (uint16, error) {
	if channel < 0 || channel >= len(adsMuxBits) {
		return 0, &BusError{Op: "config", Err: errors.New("channel out of range")}
	}
	config := uint16(adsBaseConfig) | adsMuxBits[channel]
	a.buf[0] = byte(config >> 8)
	a.buf[1] = byte(config)
	if err := a.bus.WriteReg(a.addr, adsConfReg, a.buf[:]); err != nil {
		return 0, &BusError{Op: "start conversion", Err: err}
	}

	time.Sleep(adsConversionWait)

	ready := false
	for i := 0; i < adsPollLimit; i++ {
		if err := a.bus.ReadReg(a.addr, adsConfReg, a.buf[:]); err != nil {
			return 0, &BusError{Op: "poll status", Err: err}
		}
		if a.buf[0]&adsReadyBit != 0 {
			ready = true
			break
		}
		time.Sleep(adsPollInterval)
	}
	if !ready {
		return 0, &BusError{Op: "poll status", Err: errConversionTimeout}
	}

	if err := a.bus.ReadReg(a.addr, adsConvReg, a.buf[:]); err != nil {
		return 0, &BusError{Op: "read result", Err: err}
	}
	raw := int16(uint16(a.buf[0])<<8 | uint16(a.buf[1]))

	// Signed -32768..32767 to unsigned full scale.
	return uint16(int(raw) + 32768), nil
}

// Input binds one ADS1115 channel as an AnalogReader.
func (a *ADS1115) Input(channel int) AnalogReader {
	return adsInput{a, channel}
}

type adsInput struct {
	dev     *ADS1115
	channel int
}

func (in adsInput) ReadU16() (uint16, error) {
	return in.dev.ReadChannel(in.channel)
}
