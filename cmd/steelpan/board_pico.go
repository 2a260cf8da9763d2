//go:build baremetal

package main

import (
	"fmt"
	"machine"
	"strconv"
	"strings"

	"github.com/panforge/pan/hwio"
)

// picoBoard maps layout pin names onto RP2040 GPIO through the machine
// package. Names are "GP0".."GP28" or "LED"; analog reads use the on-chip
// converter, so only the ADC-capable pins (GP26..GP28) resolve there.
type picoBoard struct {
	adcReady bool
}

func newBoard() hwio.Board { return &picoBoard{} }

func (b *picoBoard) pin(name string) (machine.Pin, error) {
	if name == "LED" {
		return machine.LED, nil
	}
	num, err := strconv.Atoi(strings.TrimPrefix(name, "GP"))
	if err != nil || !strings.HasPrefix(name, "GP") || num < 0 || num > 28 {
		return 0, fmt.Errorf("unknown pin %q", name)
	}
	return machine.Pin(num), nil
}

func (b *picoBoard) InputPin(name string) (hwio.InputPin, error) {
	p, err := b.pin(name)
	if err != nil {
		return nil, err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return gpioPin{p}, nil
}

// TouchPin configures a plain input: the RP2040 has no capacitive sense
// block, so touch pads arrive through an external breakout driving the
// pin high on contact.
func (b *picoBoard) TouchPin(name string) (hwio.InputPin, error) {
	p, err := b.pin(name)
	if err != nil {
		return nil, err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinInput})
	return gpioPin{p}, nil
}

func (b *picoBoard) OutputPin(name string, level bool) (hwio.OutputPin, error) {
	p, err := b.pin(name)
	if err != nil {
		return nil, err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(level)
	return gpioPin{p}, nil
}

func (b *picoBoard) Analog(name string) (hwio.AnalogReader, error) {
	p, err := b.pin(name)
	if err != nil {
		return nil, err
	}
	if p < machine.ADC0 {
		return nil, fmt.Errorf("pin %s has no adc channel", name)
	}
	if !b.adcReady {
		machine.InitADC()
		b.adcReady = true
	}
	a := machine.ADC{Pin: p}
	a.Configure(machine.ADCConfig{})
	return nativeADC{a}, nil
}

func (b *picoBoard) I2C(sda, scl string) (hwio.RegisterBus, error) {
	sdaPin, err := b.pin(sda)
	if err != nil {
		return nil, err
	}
	sclPin, err := b.pin(scl)
	if err != nil {
		return nil, err
	}
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{SDA: sdaPin, SCL: sclPin}); err != nil {
		return nil, err
	}
	return i2cBus{bus}, nil
}

type gpioPin struct {
	p machine.Pin
}

func (g gpioPin) Get() bool { return g.p.Get() }

func (g gpioPin) Set(level bool) { g.p.Set(level) }

type nativeADC struct {
	a machine.ADC
}

func (n nativeADC) ReadU16() (uint16, error) { return n.a.Get(), nil }

type i2cBus struct {
	bus *machine.I2C
}

func (b i2cBus) WriteReg(addr, reg uint8, p []byte) error {
	return b.bus.WriteRegister(addr, reg, p)
}

func (b i2cBus) ReadReg(addr, reg uint8, p []byte) error {
	return b.bus.ReadRegister(addr, reg, p)
}
