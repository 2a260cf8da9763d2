package pan

import (
	"github.com/panforge/pan/wavfile"
)

// voice is one simultaneous playback line. Voices are created once at
// engine initialization and reused; they are touched only by the mixing
// goroutine.
type voice struct {
	stream *wavfile.Stream
	pitch  int // -1 when idle
	gain   int // fixed point, gainUnity = unchanged
	active bool
	buf    []int16
}

func newVoice(chunkSize int) voice {
	return voice{pitch: -1, buf: make([]int16, chunkSize)}
}

// start begins playing a sample file on this voice, cutting whatever it
// was playing before. The previous stream is always closed first so a
// steal never leaks a file handle.
func (v *voice) start(path string, gain, pitch int) error {
	v.stop()
	s, err := wavfile.Open(path)
	if err != nil {
		return err
	}
	v.stream = s
	v.gain = gain
	v.pitch = pitch
	v.active = true
	return nil
}

// stop closes the stream and idles the voice. Safe to call repeatedly.
func (v *voice) stop() {
	v.active = false
	v.pitch = -1
	if v.stream != nil {
		v.stream.Close()
		v.stream = nil
	}
}

// fill pulls the next chunk into v.buf and returns the sample count.
// When the stream is exhausted (or unreadable) the voice idles and the
// count of samples read before the end is returned, possibly 0.
func (v *voice) fill() int {
	if !v.active || v.stream == nil {
		return 0
	}
	n, err := v.stream.ReadChunk(v.buf)
	if n == 0 || err != nil {
		v.stop()
	}
	return n
}
