// Package hwio abstracts the board-level resources the scanner needs:
// digital pins, analog converters and the analog multiplexers that fan a
// single converter input across many sensor channels.
package hwio

import "fmt"

// InputPin is a digital input line.
type InputPin interface {
	Get() bool
}

// OutputPin is a digital output line.
type OutputPin interface {
	Set(level bool)
}

// AnalogReader returns one converted reading in the full 0..65535 range.
// A failed conversion surfaces as an error for that reading only; callers
// treat the channel as inactive and move on.
type AnalogReader interface {
	ReadU16() (uint16, error)
}

// RegisterBus is a register-addressed byte bus (I2C-style): every transfer
// targets a device address and a register on that device.
type RegisterBus interface {
	WriteReg(addr, reg uint8, p []byte) error
	ReadReg(addr, reg uint8, p []byte) error
}

// Board hands out named hardware resources. Asking for a name the board
// does not have is a configuration error; the scanner drops that binding
// and keeps the rest.
type Board interface {
	// InputPin returns a digital input with the internal pull-up enabled.
	InputPin(name string) (InputPin, error)
	// TouchPin returns a capacitive touch input (active high).
	TouchPin(name string) (InputPin, error)
	// OutputPin returns a digital output, initially driven to the given level.
	OutputPin(name string, level bool) (OutputPin, error)
	// Analog returns the board-native converter on the given pin.
	Analog(name string) (AnalogReader, error)
	// I2C returns the register bus on the given pins.
	I2C(sda, scl string) (RegisterBus, error)
}

// BusError reports a failed transfer on an external converter bus.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }
