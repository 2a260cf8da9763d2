// Package pan implements the real-time core of an electronic steel pan:
// a fixed pool of sample-playback voices software-mixed into fixed-size
// 16-bit mono PCM chunks, driven by note-on/note-off commands queued from
// the input-scanning task.
package pan

// ChunkWriter is the output transport. WriteChunk accepts one fixed-size
// chunk of 16-bit mono samples and blocks until the transport's buffer
// takes it; that blocking call is what paces the mixing loop.
type ChunkWriter interface {
	WriteChunk(samples []int16) error
	Close() error
}

// NotePlayer is the public playing contract, shared by the sample engine
// and the degraded-mode tone engine so the caller can substitute one for
// the other.
type NotePlayer interface {
	NoteOn(pitch, velocity int)
	NoteOff(pitch int)
	AllOff()
}

const (
	// DefaultChunkSize is the number of samples mixed per cycle
	// (~23ms at 22050 Hz).
	DefaultChunkSize = 512

	DefaultVoices     = 6
	DefaultSampleRate = 22050
)

// Config configures an Engine.
type Config struct {
	// Out receives the mixed chunks. Required.
	Out ChunkWriter

	// Voices is the polyphony limit. Zero means DefaultVoices.
	Voices int

	// ChunkSize is the samples per mix cycle. Zero means DefaultChunkSize.
	ChunkSize int

	// SoundsDir is the directory holding one WAV file per note.
	SoundsDir string

	// Logf receives warnings about locally absorbed failures
	// (missing samples, unreadable files). Nil falls back to log.Printf.
	Logf func(format string, args ...any)
}
