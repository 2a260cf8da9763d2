package layout

import (
	"math"
	"strconv"
)

// Note is one playable pan note. Notes are built once from the layout file
// and are immutable afterwards.
type Note struct {
	// Name is the pitch class as written in the layout file, e.g. "C" or "F#".
	Name   string
	Octave int

	// Ring and Idx are display metadata describing where the note sits on
	// the physical pan. The core never interprets them.
	Ring string
	Idx  string

	// Pitch is the canonical note identity: a semitone index with 12 steps
	// per octave and A4 = 69.
	Pitch int

	// Freq is the equal temperament frequency in Hz (A4 = 440).
	Freq float64

	// Filename is the deterministic sample file name, e.g. "Cs4.wav".
	Filename string
}

// Display returns the note name as shown to the user, e.g. "C#4".
func (n *Note) Display() string {
	return n.Name + strconv.Itoa(n.Octave)
}

// semitones maps a pitch class spelling to its semitone index within the
// octave. Enharmonic spellings are accepted.
var semitones = map[string]int{
	"C": 0, "C#": 1, "Db": 1,
	"D": 2, "D#": 3, "Eb": 3,
	"E": 4, "Fb": 4, "E#": 5,
	"F": 5, "F#": 6, "Gb": 6,
	"G": 7, "G#": 8, "Ab": 8,
	"A": 9, "A#": 10, "Bb": 10,
	"B": 11, "Cb": 11, "B#": 0,
}

// fileNames spells each semitone for use in a filename; sharps use an "s"
// since "#" is not safe in every filesystem the samples may pass through.
var fileNames = [12]string{"C", "Cs", "D", "Ds", "E", "F", "Fs", "G", "Gs", "A", "As", "B"}

var displayNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchNumber converts a pitch class name and octave to a pitch number.
// It reports false for unrecognized pitch names and for octaves that land
// outside the 0..127 pitch range, so a bad layout entry is skipped rather
// than carried into the indexed filename tables.
func PitchNumber(name string, octave int) (int, bool) {
	semi, ok := semitones[name]
	if !ok {
		return 0, false
	}
	pitch := (octave+1)*12 + semi
	if pitch < 0 || pitch > 127 {
		return 0, false
	}
	return pitch, true
}

// Frequency returns the equal temperament frequency of a pitch number,
// with pitch 69 (A4) at exactly 440 Hz.
func Frequency(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// Filename returns the sample file name for a pitch number, e.g. 60 -> "C4.wav".
func Filename(pitch int) string {
	octave := pitch/12 - 1
	return fileNames[pitch%12] + strconv.Itoa(octave) + ".wav"
}

// DisplayName returns the display spelling of a pitch number, e.g. 61 -> "C#4".
func DisplayName(pitch int) string {
	octave := pitch/12 - 1
	return displayNames[pitch%12] + strconv.Itoa(octave)
}
