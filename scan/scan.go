// Package scan turns physical pad activity into note press/release events.
//
// Every scanner variant follows the same contract: Scan is called once per
// tick and reports only edges, by comparing the tick's observed state with
// the state stored on the previous tick. Steady states produce nothing, so
// debouncing reduces to edge comparison; noise on purely analog channels
// is controlled by the configured threshold, not by the scanner.
package scan

import (
	"log"

	"github.com/panforge/pan/layout"
)

// Strike is a newly pressed note with its resolved velocity (1..127).
type Strike struct {
	Note     *layout.Note
	Velocity int
}

// Scanner reports press and release edges once per tick.
type Scanner interface {
	Scan() (pressed []Strike, released []*layout.Note)

	// Len reports the number of live input bindings. Zero means every
	// binding was dropped during construction and scanning is pointless.
	Len() int
}

// DefaultVelocity is used when an input has no analog intensity source.
const DefaultVelocity = 100

const maxVelocity = 127

// Logf receives warnings about dropped bindings and absorbed errors.
// A nil Logf falls back to the standard logger.
type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l != nil {
		l(format, args...)
		return
	}
	log.Printf(format, args...)
}

// velocityFromRaw rescales a full-range reading 0..65535 linearly into
// 1..127.
func velocityFromRaw(raw uint16) int {
	v := int(float64(raw)/65535.0*126.0) + 1
	if v < 1 {
		return 1
	}
	if v > maxVelocity {
		return maxVelocity
	}
	return v
}

// velocityAboveThreshold rescales the portion of a reading above the
// activation threshold into 1..127. Callers only invoke it for readings
// strictly above the threshold.
func velocityAboveThreshold(raw uint16, threshold int) int {
	span := 65535 - threshold
	if span <= 0 {
		return DefaultVelocity
	}
	v := int(float64(int(raw)-threshold)/float64(span)*126.0) + 1
	if v < 1 {
		return 1
	}
	if v > maxVelocity {
		return maxVelocity
	}
	return v
}
