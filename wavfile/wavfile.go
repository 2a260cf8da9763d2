// Package wavfile reads 16-bit signed mono PCM WAV files in chunks for
// streaming playback.
package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	riffHeaderSize = 12
	chunkHeaderSize = 8

	formatPCM = 1
)

// Stream decodes the audio payload of one WAV file sequentially.
// A Stream is owned by a single voice and is not safe for concurrent use.
type Stream struct {
	src    io.ReadSeeker
	closer io.Closer

	sampleRate int

	dataStart int64 // file offset of the audio payload
	dataLen   int64 // payload length in bytes
	pos       int64 // bytes consumed from the payload

	scratch []byte
}

// Open opens a WAV file from disk and validates its header.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := New(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// New parses the WAV header from src. The name is used in errors only.
// The source must be positioned at the start of the file.
func New(src io.ReadSeeker, name string) (*Stream, error) {
	var hdr [riffHeaderSize]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		return nil, &FormatError{Path: name, Message: "file too short for RIFF header"}
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return nil, &FormatError{Path: name, Message: "not a RIFF/WAVE file"}
	}

	s := &Stream{src: src}

	// Walk the chunk list. The fmt chunk must precede the data chunk;
	// anything else (LIST, fact, ...) is skipped.
	offset := int64(riffHeaderSize)
	sawFmt := false
	for {
		var ch [chunkHeaderSize]byte
		if _, err := io.ReadFull(src, ch[:]); err != nil {
			return nil, &FormatError{Path: name, Message: "no data chunk found"}
		}
		id := string(ch[0:4])
		size := int64(binary.LittleEndian.Uint32(ch[4:8]))
		offset += chunkHeaderSize

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, &FormatError{Path: name, Message: "fmt chunk too short"}
			}
			var fm [16]byte
			if _, err := io.ReadFull(src, fm[:]); err != nil {
				return nil, &FormatError{Path: name, Message: "truncated fmt chunk"}
			}
			code := binary.LittleEndian.Uint16(fm[0:2])
			channels := binary.LittleEndian.Uint16(fm[2:4])
			rate := binary.LittleEndian.Uint32(fm[4:8])
			bits := binary.LittleEndian.Uint16(fm[14:16])
			if code != formatPCM {
				return nil, &FormatError{Path: name, Message: fmt.Sprintf("not linear PCM (format %d)", code)}
			}
			if channels != 1 || bits != 16 {
				return nil, &FormatError{Path: name, Message: fmt.Sprintf("must be 16-bit mono, got %dch %dbit", channels, bits)}
			}
			s.sampleRate = int(rate)
			sawFmt = true
			// Skip any fmt extension bytes, plus the alignment pad
			// (chunks are word aligned; an odd size carries a pad byte).
			if ext := size - 16 + size&1; ext > 0 {
				if _, err := src.Seek(ext, io.SeekCurrent); err != nil {
					return nil, &FormatError{Path: name, Message: "truncated fmt chunk"}
				}
			}
			offset += size + size&1

		case "data":
			if !sawFmt {
				return nil, &FormatError{Path: name, Message: "data chunk before fmt chunk"}
			}
			s.dataStart = offset
			s.dataLen = size
			return s, nil

		default:
			skip := size + size&1 // word alignment pad after odd-sized chunks
			if _, err := src.Seek(skip, io.SeekCurrent); err != nil {
				return nil, &FormatError{Path: name, Message: "truncated chunk " + id}
			}
			offset += skip
		}
	}
}

// SampleRate returns the sample rate declared in the header.
func (s *Stream) SampleRate() int { return s.sampleRate }

// NumSamples returns the total number of samples in the audio payload.
func (s *Stream) NumSamples() int { return int(s.dataLen / 2) }

// ReadChunk decodes up to len(buf) samples into buf and returns the number
// of samples written. It returns 0 with a nil error exactly when the
// payload is exhausted; running off the end of a note is not an error.
func (s *Stream) ReadChunk(buf []int16) (int, error) {
	remaining := (s.dataLen - s.pos) / 2
	want := int64(len(buf))
	if want > remaining {
		want = remaining
	}
	if want <= 0 {
		return 0, nil
	}

	nbytes := int(want * 2)
	if cap(s.scratch) < nbytes {
		s.scratch = make([]byte, nbytes)
	}
	raw := s.scratch[:nbytes]
	n, err := io.ReadFull(s.src, raw)
	samples := n / 2
	for i := 0; i < samples; i++ {
		buf[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	s.pos += int64(samples * 2)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		// A payload shorter than its declared length just ends early.
		s.dataLen = s.pos
		err = nil
	}
	return samples, err
}

// Rewind seeks back to the start of the audio payload, so the next
// ReadChunk produces sample index 0 again.
func (s *Stream) Rewind() error {
	if _, err := s.src.Seek(s.dataStart, io.SeekStart); err != nil {
		return err
	}
	s.pos = 0
	return nil
}

// Close releases the underlying file, if the Stream owns one.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
