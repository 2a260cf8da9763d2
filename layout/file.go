package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is a parsed pan layout file: the note table plus the hardware
// section describing how the pan is wired.
type File struct {
	Notes    []NoteEntry `json:"notes"`
	Hardware Hardware    `json:"hardware"`
}

// NoteEntry is one raw note record from the layout file.
type NoteEntry struct {
	Name   string `json:"name"`
	Octave int    `json:"octave"`
	Ring   string `json:"ring"`
	Idx    string `json:"idx"`
}

// Hardware selects the input mode and binds physical resources to notes.
// Fields left empty fall back to the defaults applied by SetDefaults.
type Hardware struct {
	// InputMode is one of "button", "touch", "mux_touch", "mux_scan".
	InputMode string `json:"input_mode"`

	// Pins maps a digital pin name to the note it triggers
	// (button, touch and mux_touch modes).
	Pins map[string]PadRef `json:"pins"`

	// Pads lists the analog pads for mux_scan mode.
	Pads []PadConfig `json:"pads"`

	Mux MuxConfig  `json:"mux"`
	ADC *ADCConfig `json:"adc"`

	LEDPin     string `json:"led_pin"`
	MaxVoices  int    `json:"max_voices"`
	SampleRate int    `json:"sample_rate"`
	SoundsDir  string `json:"sounds_dir"`
}

// PadRef binds a digital input to a note, optionally with a mux channel
// carrying the strike intensity. In JSON it is either a bare note
// identifier string or an object {"note": ..., "mux_channel": ...}.
type PadRef struct {
	Note       string
	MuxChannel *int
}

func (p *PadRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Note = s
		p.MuxChannel = nil
		return nil
	}
	var obj struct {
		Note       string `json:"note"`
		MuxChannel *int   `json:"mux_channel"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Note = obj.Note
	p.MuxChannel = obj.MuxChannel
	return nil
}

func (p PadRef) MarshalJSON() ([]byte, error) {
	if p.MuxChannel == nil {
		return json.Marshal(p.Note)
	}
	return json.Marshal(struct {
		Note       string `json:"note"`
		MuxChannel *int   `json:"mux_channel"`
	}{p.Note, p.MuxChannel})
}

// PadConfig is one purely-analog pad: a channel on one of the two
// multiplexer banks.
type PadConfig struct {
	Note    string `json:"note"`
	Mux     string `json:"mux"` // "a" or "b"
	Channel int    `json:"channel"`
}

// MuxConfig describes the shared multiplexer wiring.
type MuxConfig struct {
	SelectPins []string   `json:"select_pins"`
	MuxA       BankConfig `json:"mux_a"`
	MuxB       BankConfig `json:"mux_b"`

	// AnalogPin is the converter input used in mux_touch mode.
	AnalogPin string `json:"analog_pin"`

	// Threshold is the activation level for mux_scan mode, in the
	// converter's 0..65535 range.
	Threshold int `json:"threshold"`

	// SettleUS is the delay between addressing a channel and sampling it,
	// in microseconds.
	SettleUS int `json:"settle_us"`
}

// BankConfig describes one multiplexer of a dual-mux bank.
type BankConfig struct {
	EnablePin string `json:"enable_pin"`
	AnalogPin string `json:"analog_pin"`
}

// ADCConfig selects the analog read back-end.
type ADCConfig struct {
	// Type is "native" or "i2c" (external register-bus converter).
	Type string `json:"type"`
	SDA  string `json:"sda"`
	SCL  string `json:"scl"`
}

// Defaults for the hardware section when the layout file leaves them unset.
const (
	DefaultVoices     = 6
	DefaultSampleRate = 22050
	DefaultSoundsDir  = "sounds"
	DefaultThreshold  = 3000
	DefaultSettleUS   = 100
	DefaultLEDPin     = "LED"
)

// SetDefaults fills unset hardware fields with their defaults.
func (hw *Hardware) SetDefaults() {
	if hw.InputMode == "" {
		hw.InputMode = "button"
	}
	if hw.MaxVoices <= 0 {
		hw.MaxVoices = DefaultVoices
	}
	if hw.SampleRate <= 0 {
		hw.SampleRate = DefaultSampleRate
	}
	if hw.SoundsDir == "" {
		hw.SoundsDir = DefaultSoundsDir
	}
	if hw.Mux.Threshold <= 0 {
		hw.Mux.Threshold = DefaultThreshold
	}
	if hw.Mux.SettleUS <= 0 {
		hw.Mux.SettleUS = DefaultSettleUS
	}
	if hw.LEDPin == "" {
		hw.LEDPin = DefaultLEDPin
	}
}

// Parse decodes a layout file from raw JSON and applies hardware defaults.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	f.Hardware.SetDefaults()
	return &f, nil
}

// Load reads and parses a layout file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Parse(data)
}

// Registry builds the note registry from the file's note entries.
func (f *File) Registry() *Registry {
	return NewRegistry(f.Notes)
}
