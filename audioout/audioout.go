// Package audioout adapts the pull-based oto sound device to the
// push-based chunk writes the mixing loop performs, and provides an
// in-memory sink for tests.
package audioout

import (
	"io"

	"github.com/ebitengine/oto/v3"
)

// Player sends 16-bit mono PCM chunks to the default sound device.
// WriteChunk blocks while the device buffer is full, which is what paces
// a mixing loop writing into it.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	buf    []byte
}

// NewPlayer opens the sound device at the given sample rate. Opening can
// take a moment on some platforms; NewPlayer waits until the device is
// ready so the first chunk is not swallowed.
func NewPlayer(sampleRate, chunkSize int) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	pr, pw := io.Pipe()
	p := ctx.NewPlayer(pr)
	// Two chunks of device-side buffer: enough to hide scheduling jitter,
	// small enough that strikes are not audibly late.
	p.SetBufferSize(chunkSize * 2 * 2)
	p.Play()

	return &Player{
		ctx:    ctx,
		player: p,
		pw:     pw,
		buf:    make([]byte, chunkSize*2),
	}, nil
}

// WriteChunk encodes the samples little-endian and hands them to the
// device, blocking until the device has room.
func (p *Player) WriteChunk(samples []int16) error {
	if len(p.buf) < len(samples)*2 {
		p.buf = make([]byte, len(samples)*2)
	}
	for i, s := range samples {
		p.buf[i*2] = byte(s)
		p.buf[i*2+1] = byte(s >> 8)
	}
	_, err := p.pw.Write(p.buf[:len(samples)*2])
	return err
}

// Close tears down the device. Any WriteChunk blocked on the device
// returns with an error.
func (p *Player) Close() error {
	p.pw.Close()
	return p.player.Close()
}
