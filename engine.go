package pan

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/panforge/pan/layout"
)

// maxPendingCommands bounds the note command queue. The scan task ticks
// tens of times per second and the mixer drains every ~23ms, so the bound
// only matters if the output transport stalls; excess strikes are dropped
// rather than buffered into the past.
const maxPendingCommands = 128

type noteOnCmd struct {
	pitch int
	gain  int
}

// Engine is the polyphonic sample player. The mixing loop owns the voice
// pool and the output transport; the scanning task talks to it solely
// through the lock-guarded pending command queue.
type Engine struct {
	cfg Config

	// Mixing state. Touched only by the mixing goroutine once Start has
	// been called.
	voices []voice
	next   int // round-robin cursor
	mix    []int32
	out    []int16

	// Sample paths by pitch number, filled before Start.
	paths map[int]string

	// Command queue shared between the two tasks.
	mu            sync.Mutex
	pendingOn     []noteOnCmd
	pendingOff    []int
	pendingAllOff bool

	stop chan struct{}
	done chan struct{}
}

// NewEngine builds an engine with an idle voice pool. cfg.Out is required.
func NewEngine(cfg Config) *Engine {
	if cfg.Voices <= 0 {
		cfg.Voices = DefaultVoices
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	e := &Engine{
		cfg:   cfg,
		mix:   make([]int32, cfg.ChunkSize),
		out:   make([]int16, cfg.ChunkSize),
		paths: make(map[int]string),
	}
	e.voices = make([]voice, cfg.Voices)
	for i := range e.voices {
		e.voices[i] = newVoice(cfg.ChunkSize)
	}
	return e
}

func (e *Engine) logf(format string, args ...any) {
	if e.cfg.Logf != nil {
		e.cfg.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// LoadNote registers the sample file for one pitch. It reports whether
// the file exists; a missing file just means that note never sounds.
func (e *Engine) LoadNote(pitch int, filename string) bool {
	path := filepath.Join(e.cfg.SoundsDir, filename)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	e.paths[pitch] = path
	return true
}

// LoadAll registers sample files for every note in the registry and
// returns how many were found. Zero tells the caller to fall back to the
// tone engine.
func (e *Engine) LoadAll(reg *layout.Registry) int {
	loaded := 0
	for _, n := range reg.Notes() {
		if e.LoadNote(n.Pitch, n.Filename) {
			loaded++
		} else {
			e.logf("missing sample %s", n.Filename)
		}
	}
	e.logf("loaded %d/%d samples", loaded, reg.Len())
	return loaded
}

// NoteOn queues a strike. The gain is fixed at attack time from the
// velocity and never changes during playback.
func (e *Engine) NoteOn(pitch, velocity int) {
	cmd := noteOnCmd{pitch: pitch, gain: velocityGain(velocity)}
	e.mu.Lock()
	if len(e.pendingOn) < maxPendingCommands {
		e.pendingOn = append(e.pendingOn, cmd)
	}
	e.mu.Unlock()
}

// NoteOff queues a release for every voice sounding the pitch.
func (e *Engine) NoteOff(pitch int) {
	e.mu.Lock()
	if len(e.pendingOff) < maxPendingCommands {
		e.pendingOff = append(e.pendingOff, pitch)
	}
	e.mu.Unlock()
}

// AllOff queues a bulk stop. Like every other command it takes effect at
// the next mix-cycle boundary, not at call time.
func (e *Engine) AllOff() {
	e.mu.Lock()
	e.pendingAllOff = true
	e.mu.Unlock()
}

// Start launches the mixing loop. The loop runs until Close.
func (e *Engine) Start() {
	if e.stop != nil {
		return
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run()
}

// Close stops the mixing loop and hard-stops every voice immediately,
// bypassing the queue; no further mixing is expected after it.
func (e *Engine) Close() {
	if e.stop != nil {
		close(e.stop)
		<-e.done
		e.stop = nil
	}
	for i := range e.voices {
		e.voices[i].stop()
	}
}

func (e *Engine) run() {
	defer close(e.done)
	for {
		select {
		case <-e.stop:
			return
		default:
		}
		e.applyPending()
		if err := e.mixChunk(); err != nil {
			// The transport is gone; without its pacing the loop would
			// spin, so this is the one failure that ends it.
			e.logf("audio output: %v", err)
			return
		}
	}
}

// applyPending drains the command queue and applies it to the voice pool.
// The drain is a single swap under the lock so the mixer never observes a
// half-appended batch from one scan tick.
func (e *Engine) applyPending() {
	e.mu.Lock()
	ons := e.pendingOn
	offs := e.pendingOff
	allOff := e.pendingAllOff
	e.pendingOn = nil
	e.pendingOff = nil
	e.pendingAllOff = false
	e.mu.Unlock()

	if allOff {
		for i := range e.voices {
			e.voices[i].stop()
		}
	}

	for _, cmd := range ons {
		e.noteOn(cmd)
	}
	for _, pitch := range offs {
		if i := e.findVoice(pitch); i >= 0 {
			e.voices[i].stop()
		}
	}
}

// noteOn starts a fresh attack on the round-robin slot. The cursor
// advances regardless of whether the slot is busy, so an occupied slot is
// stolen with a hard cut; the pan's natural decay makes that acceptable.
// A pitch already sounding elsewhere is stopped first so no note ever
// occupies two slots, then re-attacked here.
func (e *Engine) noteOn(cmd noteOnCmd) {
	path, ok := e.paths[cmd.pitch]
	if !ok {
		return
	}

	if i := e.findVoice(cmd.pitch); i >= 0 {
		e.voices[i].stop()
	}

	slot := e.next
	e.next = (e.next + 1) % len(e.voices)
	e.voices[slot].stop()
	if err := e.voices[slot].start(path, cmd.gain, cmd.pitch); err != nil {
		e.logf("voice start %s: %v", layout.DisplayName(cmd.pitch), err)
	}
}

func (e *Engine) findVoice(pitch int) int {
	for i := range e.voices {
		if e.voices[i].active && e.voices[i].pitch == pitch {
			return i
		}
	}
	return -1
}

// mixChunk produces and writes one output chunk. It runs even when every
// voice is idle: the silent write is what paces the loop in real time.
func (e *Engine) mixChunk() error {
	for i := range e.mix {
		e.mix[i] = 0
	}

	active := 0
	for vi := range e.voices {
		v := &e.voices[vi]
		if !v.active {
			continue
		}
		n := v.fill()
		if n == 0 {
			continue
		}
		active++
		gain := int32(v.gain)
		for i := 0; i < n; i++ {
			e.mix[i] += int32(v.buf[i]) * gain >> 8
		}
	}

	// Headroom: scale down with the simultaneous voice count before
	// clamping, so chords do not slam into the rails.
	var shift uint
	switch {
	case active > 3:
		shift = 2
	case active > 1:
		shift = 1
	}

	for i, s := range e.mix {
		e.out[i] = int16(clamp(s>>shift, -32768, 32767))
	}

	return e.cfg.Out.WriteChunk(e.out)
}
