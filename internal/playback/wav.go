/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package playback

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/faiface/beep"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrNotWAV = errors.New("not a PCM wav file")

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// wavStreamer feeds PCM frames from a wav decoder to the speaker as
// stereo floats. Mono is copied to both sides.
type wavStreamer struct {
	dec   *wav.Decoder
	buf   *audio.IntBuffer
	chans int
	bias  int
	scale float64
	err   error
}

// DecodeWAV reads the wav header from r and returns a streamer positioned
// at the first frame.
func DecodeWAV(r io.ReadSeeker) (beep.Streamer, beep.Format, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, beep.Format{}, ErrNotWAV
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, beep.Format{}, fmt.Errorf("%w: format tag %d", ErrNotWAV, dec.WavAudioFormat)
	}

	chans := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if chans < 1 || chans > 2 {
		return nil, beep.Format{}, fmt.Errorf("%w: %d channels", ErrNotWAV, chans)
	}
	if depth != 8 && depth != 16 && depth != 24 && depth != 32 {
		return nil, beep.Format{}, fmt.Errorf("%w: %d bit", ErrNotWAV, depth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, beep.Format{}, fmt.Errorf("seek pcm: %w", err)
	}

	s := &wavStreamer{
		dec:   dec,
		buf:   &audio.IntBuffer{Format: dec.Format(), SourceBitDepth: depth},
		chans: chans,
		scale: math.Ldexp(1, depth-1),
	}
	// 8-bit wav samples are unsigned
	if depth == 8 {
		s.bias = 128
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(dec.SampleRate),
		NumChannels: 2,
		Precision:   depth / 8,
	}
	return s, format, nil
}

func (s *wavStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	want := len(samples) * s.chans
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}

	frames := n / s.chans
	for i := 0; i < frames; i++ {
		l := float64(s.buf.Data[i*s.chans]-s.bias) / s.scale
		r := l
		if s.chans == 2 {
			r = float64(s.buf.Data[i*s.chans+1]-s.bias) / s.scale
		}
		samples[i] = [2]float64{l, r}
	}
	return frames, frames > 0
}

func (s *wavStreamer) Err() error { return s.err }

// Tap keeps a ring of the most recent mono output samples for the level
// meter.
type Tap struct {
	mu  sync.Mutex
	buf []float64
	pos int
}

func NewTap(size int) *Tap {
	if size < 1 {
		size = 1
	}
	return &Tap{buf: make([]float64, size)}
}

// Wrap returns s with everything it produces copied into the ring.
func (t *Tap) Wrap(s beep.Streamer) beep.Streamer {
	return &tapped{s: s, t: t}
}

// Samples returns the last n samples in order, oldest first.
func (t *Tap) Samples(n int) []float64 {
	size := len(t.buf)
	if n > size {
		n = size
	}
	out := make([]float64, n)

	t.mu.Lock()
	start := (t.pos - n + size) % size
	for i := range n {
		out[i] = t.buf[(start+i)%size]
	}
	t.mu.Unlock()
	return out
}

func (t *Tap) record(samples [][2]float64) {
	t.mu.Lock()
	for _, s := range samples {
		t.buf[t.pos] = (s[0] + s[1]) / 2
		t.pos = (t.pos + 1) % len(t.buf)
	}
	t.mu.Unlock()
}

type tapped struct {
	s beep.Streamer
	t *Tap
}

func (p *tapped) Stream(samples [][2]float64) (int, bool) {
	n, ok := p.s.Stream(samples)
	p.t.record(samples[:n])
	return n, ok
}

func (p *tapped) Err() error { return p.s.Err() }
