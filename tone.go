package pan

import (
	"math"
	"sync"

	"github.com/panforge/pan/layout"
)

// ToneEngine is the degraded-mode player used when no sample files are
// found: a monophonic square-wave generator with the same NotePlayer
// contract as the sample engine. It exists so a board with a missing or
// empty sounds directory still makes a recognizable pitch on every pad.
type ToneEngine struct {
	out        ChunkWriter
	sampleRate int
	chunk      []int16
	logf       func(format string, args ...any)

	mu       sync.Mutex
	pitch    int // -1 when silent
	freq     float64
	amp      int32
	phase    float64
	phaseInc float64

	stop chan struct{}
	done chan struct{}
}

// NewToneEngine builds a silent tone engine writing to out at the given
// sample rate.
func NewToneEngine(out ChunkWriter, sampleRate, chunkSize int, logf func(format string, args ...any)) *ToneEngine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ToneEngine{
		out:        out,
		sampleRate: sampleRate,
		chunk:      make([]int16, chunkSize),
		logf:       logf,
		pitch:      -1,
	}
}

// NoteOn starts the tone for the pitch, replacing whatever was sounding.
func (t *ToneEngine) NoteOn(pitch, velocity int) {
	freq := layout.Frequency(pitch)
	if freq < 20 || freq > 20000 {
		return
	}
	// Square waves carry far more energy than the pan samples at the same
	// peak, so the amplitude is kept a quarter of full scale.
	amp := int32(velocityGain(velocity)) * 8192 / gainUnity

	t.mu.Lock()
	t.pitch = pitch
	t.freq = freq
	t.amp = amp
	t.phase = 0
	t.phaseInc = freq / float64(t.sampleRate)
	t.mu.Unlock()
}

// NoteOff silences the tone if the pitch is the one sounding.
func (t *ToneEngine) NoteOff(pitch int) {
	t.mu.Lock()
	if t.pitch == pitch {
		t.pitch = -1
	}
	t.mu.Unlock()
}

// AllOff silences the tone unconditionally.
func (t *ToneEngine) AllOff() {
	t.mu.Lock()
	t.pitch = -1
	t.mu.Unlock()
}

// Start launches the generation loop.
func (t *ToneEngine) Start() {
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run()
}

// Close stops the generation loop.
func (t *ToneEngine) Close() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop = nil
}

func (t *ToneEngine) run() {
	defer close(t.done)
	for {
		select {
		case <-t.stop:
			return
		default:
		}
		t.fillChunk()
		if err := t.out.WriteChunk(t.chunk); err != nil {
			if t.logf != nil {
				t.logf("audio output: %v", err)
			}
			return
		}
	}
}

// fillChunk renders one chunk of the current tone, or silence. The phase
// accumulator carries across chunks so there is no click at chunk
// boundaries while a note is held.
func (t *ToneEngine) fillChunk() {
	t.mu.Lock()
	silent := t.pitch < 0
	amp := t.amp
	inc := t.phaseInc
	phase := t.phase
	if !silent {
		t.phase = math.Mod(phase+inc*float64(len(t.chunk)), 1)
	}
	t.mu.Unlock()

	if silent {
		for i := range t.chunk {
			t.chunk[i] = 0
		}
		return
	}
	for i := range t.chunk {
		p := math.Mod(phase+inc*float64(i), 1)
		if p < 0.5 {
			t.chunk[i] = int16(amp)
		} else {
			t.chunk[i] = int16(-amp)
		}
	}
}
