//go:build !baremetal

package main

import (
	"fmt"

	"github.com/panforge/pan/hwio"
)

// hostBoard is the stand-in used when the binary runs on a development
// machine: no GPIO exists, so every lookup fails and the scanners end up
// empty, which routes the program into demo mode.
type hostBoard struct{}

func newBoard() hwio.Board { return hostBoard{} }

func (hostBoard) InputPin(name string) (hwio.InputPin, error) {
	return nil, fmt.Errorf("no gpio on host: %s", name)
}

func (hostBoard) TouchPin(name string) (hwio.InputPin, error) {
	return nil, fmt.Errorf("no gpio on host: %s", name)
}

func (hostBoard) OutputPin(name string, level bool) (hwio.OutputPin, error) {
	return nil, fmt.Errorf("no gpio on host: %s", name)
}

func (hostBoard) Analog(name string) (hwio.AnalogReader, error) {
	return nil, fmt.Errorf("no adc on host: %s", name)
}

func (hostBoard) I2C(sda, scl string) (hwio.RegisterBus, error) {
	return nil, fmt.Errorf("no i2c on host: %s/%s", sda, scl)
}
